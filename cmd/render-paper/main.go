// Command render-paper validates a saved paper document and writes its
// print layout without a running server.
//
//	render-paper -in paper.json -format txt|html|pdf|xlsx [-out file | -named] [-font font.ttf]
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/config"
	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/export"
	"github.com/stemsi/papercraft/internal/logger"
	"github.com/stemsi/papercraft/internal/render"
	"github.com/stemsi/papercraft/internal/validator"
)

func main() {
	var in, out, format, font string
	flag.StringVar(&in, "in", "-", "Paper JSON file, - for stdin")
	flag.StringVar(&out, "out", "", "Output file (default stdout, or the export file name with -named)")
	flag.StringVar(&format, "format", "txt", "Output format: txt, html, pdf or xlsx")
	flag.StringVar(&font, "font", "", "TTF font for pdf output (defaults to PDF_FONT_PATH)")
	named := flag.Bool("named", false, "Write to the export file name in the current directory")
	flag.Parse()

	cfg := config.Load()
	log := logger.SetupWriter(os.Stderr, cfg.LogLevel, "pretty")
	validator.Setup()
	if font == "" {
		font = cfg.PDFFontPath
	}

	if err := run(in, out, strings.ToLower(format), font, *named, log); err != nil {
		log.Error().Err(err).Msg("Render failed")
		os.Exit(1)
	}
}

func run(in, out, format, font string, named bool, log zerolog.Logger) error {
	raw, err := readInput(in)
	if err != nil {
		return err
	}
	paper, err := document.ReplaceDocument(raw)
	if err != nil {
		return err
	}
	doc := render.Render(paper)

	var buf bytes.Buffer
	switch format {
	case "txt":
		buf.WriteString(render.Text(doc))
	case "html":
		err = export.HTML(&buf, doc)
	case "pdf":
		err = export.PDF(&buf, doc, font)
	case "xlsx":
		var sheet *bytes.Buffer
		if sheet, err = export.MarksSheet(paper); err == nil {
			_, err = sheet.WriteTo(&buf)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}

	if named && out == "" {
		out = export.FileName(paper, format)
	}
	if out == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	log.Info().
		Str("file", out).
		Int("sections", len(paper.Sections)).
		Int("total_marks", paper.TotalMarks).
		Msg("Paper rendered")
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
