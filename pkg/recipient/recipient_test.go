package recipient_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/batchmail/pkg/recipient"
	"github.com/dmitrymomot/batchmail/pkg/storage"
)

func TestFromLines(t *testing.T) {
	t.Parallel()

	list := recipient.FromLines([]string{"a@x.com", "", "  b@x.com\t", "   ", "a@x.com"})

	require.Equal(t, recipient.List{
		{Address: "a@x.com", Index: 0, Line: 1},
		{Address: "b@x.com", Index: 1, Line: 3},
		{Address: "a@x.com", Index: 2, Line: 5},
	}, list)
	require.Equal(t, []string{"a@x.com", "b@x.com", "a@x.com"}, list.Addresses())
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"trailing newline", "a@x.com\nb@x.com\n", []string{"a@x.com", "b@x.com"}},
		{"no trailing newline", "a@x.com\nb@x.com", []string{"a@x.com", "b@x.com"}},
		{"crlf", "a@x.com\r\nb@x.com\r\n", []string{"a@x.com", "b@x.com"}},
		{"blank lines", "\n\na@x.com\n\n\nb@x.com\n\n", []string{"a@x.com", "b@x.com"}},
		{"bom", "\uFEFFa@x.com\n", []string{"a@x.com"}},
		{"empty", "", []string{}},
		{"only blanks", "\n \n\t\n", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			list, err := recipient.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Equal(t, tt.want, list.Addresses())
			for i, r := range list {
				require.Equal(t, i, r.Index)
			}
		})
	}
}

func TestParse_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	_, err := recipient.Parse(iotest.ErrReader(boom))
	require.ErrorIs(t, err, recipient.ErrReadFailed)
	require.ErrorIs(t, err, boom)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.txt"), []byte("a@x.com\n\nb@x.com"), 0o600))
	store := storage.NewLocal(dir)

	list, err := recipient.Load(context.Background(), store, "list.txt")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 3, list[1].Line)

	_, err = recipient.Load(context.Background(), store, "missing.txt")
	require.ErrorIs(t, err, recipient.ErrReadFailed)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
