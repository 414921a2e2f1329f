// Package recipient parses line-delimited recipient lists.
//
// Each non-blank line is one recipient. Its Index is its 0-based position among
// non-blank lines and is what binds the recipient to its attachment, so it is
// assigned here, once, before any dispatch happens. Duplicates are kept.
package recipient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrymomot/batchmail/pkg/storage"
)

// ErrReadFailed indicates the recipient list could not be read.
var ErrReadFailed = errors.New("recipient: failed to read list")

// Recipient is one entry of a list.
type Recipient struct {
	Address string `json:"address"`
	Index   int    `json:"index"` // 0-based among non-blank lines
	Line    int    `json:"line"`  // 1-based line number in the source
}

// List is an ordered recipient list.
type List []Recipient

// Addresses returns the addresses in list order.
func (l List) Addresses() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = r.Address
	}
	return out
}

const utf8BOM = "\uFEFF"

// FromLines builds a List from raw lines. Lines are trimmed; blank lines are
// skipped without consuming an index.
func FromLines(lines []string) List {
	list := make(List, 0, len(lines))
	for i, line := range lines {
		if i == 0 {
			line = strings.TrimPrefix(line, utf8BOM)
		}
		addr := strings.TrimSpace(line)
		if addr == "" {
			continue
		}
		list = append(list, Recipient{
			Address: addr,
			Index:   len(list),
			Line:    i + 1,
		})
	}
	return list
}

// Parse reads a newline-delimited list. A trailing newline is optional and
// CRLF line endings are accepted.
func Parse(r io.Reader) (List, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Join(ErrReadFailed, err)
		}
	}
	return FromLines(lines), nil
}

// Load reads and parses the list stored under key.
func Load(ctx context.Context, s storage.Storage, key string) (List, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer rc.Close()

	return Parse(rc)
}
