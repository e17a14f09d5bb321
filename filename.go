package web2pdf

import "strings"

// maxFilenameLen caps sanitized filename stems.
const maxFilenameLen = 50

// SanitizeFilename converts a page title into a safe file stem: lowercased,
// runs of non-alphanumeric characters collapsed to a single underscore,
// leading and trailing underscores trimmed, truncated to 50 characters.
// Pure function, no I/O.
func SanitizeFilename(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingSep := false
	for _, r := range strings.ToLower(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}

	s := b.String()
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	return s
}

// PDFFilename builds a download filename from a page title, falling back to
// "untitled.pdf" when the title sanitizes to nothing.
func PDFFilename(title string) string {
	stem := SanitizeFilename(title)
	if stem == "" {
		stem = "untitled"
	}
	return stem + ".pdf"
}
