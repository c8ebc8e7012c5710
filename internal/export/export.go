// Package export writes a rendered paper in its download formats.
package export

import (
	"strings"
	"unicode"

	"github.com/stemsi/papercraft/internal/model"
)

// Content types of the export formats.
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileName returns the download name exam_<subject>_<class>.<ext>, lower
// case with whitespace turned into underscores.
func FileName(p model.Paper, ext string) string {
	return "exam_" + slug(p.Subject) + "_" + slug(p.ClassName) + "." + ext
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case r == '"' || r == '/' || r == '\\' || unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
