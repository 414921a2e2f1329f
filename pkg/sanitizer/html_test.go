package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/batchmail/pkg/sanitizer"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"paragraphs become lines", "<p>Hello</p><p>Click http://x</p>", "Hello\nClick http://x"},
		{"line breaks", "one<br>two<br/>three", "one\ntwo\nthree"},
		{"entities decoded", "<p>Tom &amp; Jerry &lt;3</p>", "Tom & Jerry <3"},
		{"anchor keeps text", `<a href="http://x">Open your photo</a>`, "Open your photo"},
		{"script dropped", `<p>Hi</p><script>alert('x')</script>`, "Hi"},
		{"blank runs collapse", "<p>a</p>\n\n\n\n<p>b</p>", "a\n\nb"},
		{"list items", "<ul><li>one</li><li>two</li></ul>", "one\ntwo"},
		{"plain input unchanged", "Click http://x", "Click http://x"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.PlainText(tt.in))
		})
	}
}
