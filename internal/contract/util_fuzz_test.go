package contract

import (
	"testing"
	"unicode/utf8"
)

// FuzzTruncateText fuzzes TruncateText with random text and widths.
func FuzzTruncateText(f *testing.F) {
	f.Add("Great product, fast delivery!", 10)
	f.Add("", 0)
	f.Add("héllo wörld", 4)
	f.Fuzz(func(t *testing.T, text string, width int) {
		if !utf8.ValidString(text) {
			t.Skip()
		}
		out := TruncateText(text, width)
		if width > 3 && utf8.RuneCountInString(out) > width {
			t.Fatalf("TruncateText(%q, %d) = %q exceeds width", text, width, out)
		}
	})
}
