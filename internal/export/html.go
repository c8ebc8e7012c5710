package export

import (
	"embed"
	"html/template"
	"io"

	"github.com/stemsi/papercraft/internal/render"
)

//go:embed templates/paper.html
var templates embed.FS

var paperTemplate = template.Must(template.New("paper.html").ParseFS(templates, "templates/paper.html"))

// HTML writes doc as a self-contained A4 print page.
func HTML(w io.Writer, doc render.Document) error {
	return paperTemplate.Execute(w, doc)
}
