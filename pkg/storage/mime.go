package storage

import (
	"net/http"
	"strings"
)

// MIME type constants.
const (
	MIMEOctetStream    = "application/octet-stream"
	mimeDetectionBytes = 512 // http.DetectContentType considers at most 512 bytes
)

// DetectMIME sniffs the MIME type of data from its magic bytes.
// Returns "application/octet-stream" for empty input.
func DetectMIME(data []byte) string {
	if len(data) == 0 {
		return MIMEOctetStream
	}
	if len(data) > mimeDetectionBytes {
		data = data[:mimeDetectionBytes]
	}
	return normalizeMIME(http.DetectContentType(data))
}

// IsImageMIME reports whether mimeType is an image/* type.
func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(normalizeMIME(mimeType), "image/")
}

// normalizeMIME extracts the base MIME type, removing parameters like charset.
// Returns the lowercase MIME type.
func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}
