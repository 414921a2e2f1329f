// Package storage provides read access to files on the local filesystem or in
// S3-compatible object storage behind a single interface.
//
// The batch mailer reads two kinds of input through it: the recipient list and the
// per-recipient attachments. Both are addressed by key, so the same batch can run
// against a local upload directory or a bucket without code changes.
//
// # Local files
//
//	store := storage.NewLocal("")          // keys are plain OS paths
//	store := storage.NewLocal("/var/uploads") // keys are resolved inside the root
//
//	ok, err := store.Exists(ctx, "batch-42/1.jpg")
//	data, err := storage.ReadAll(ctx, store, "batch-42/recipients.txt")
//
// # S3
//
//	store, err := storage.New(storage.Config{
//		Bucket:    "mail-batches",
//		AccessKey: os.Getenv("S3_ACCESS_KEY"),
//		SecretKey: os.Getenv("S3_SECRET_KEY"),
//		Endpoint:  "http://localhost:9000", // MinIO
//		PathStyle: true,
//		Prefix:    "uploads",
//	})
//
// Exists issues a HEAD request and never downloads the object.
//
// # Errors
//
// All backends map their native errors onto the package sentinels:
//
//   - ErrNotFound: the key does not exist
//   - ErrAccessDenied: the backend refused access
//   - ErrReadFailed: any other read failure
//   - ErrInvalidKey: empty key
//   - ErrInvalidConfig: missing S3 configuration
//
// Use errors.Is to check them.
package storage
