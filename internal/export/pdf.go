package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/signintech/gopdf"
	"github.com/stemsi/papercraft/internal/render"
)

// ErrNoFont is returned when PDF output is requested without a TTF font.
var ErrNoFont = errors.New("pdf export requires a TTF font")

const (
	fontFamily = "paper"

	pageWidth    = 595.28
	pageHeight   = 841.89
	margin       = 56.7 // 20mm
	contentWidth = pageWidth - 2*margin
	bodySize     = 11
	lineGap      = 4
)

// PDF writes doc as an A4 PDF using the TTF font at fontPath.
func PDF(w io.Writer, doc render.Document, fontPath string) error {
	if strings.TrimSpace(fontPath) == "" {
		return ErrNoFont
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFont(fontFamily, fontPath); err != nil {
		return fmt.Errorf("load font %s: %w", fontPath, err)
	}

	pw := &pdfWriter{pdf: pdf}
	pw.newPage()
	if err := pw.document(doc); err != nil {
		return err
	}
	return pdf.Write(w)
}

type pdfWriter struct {
	pdf  *gopdf.GoPdf
	y    float64
	size float64
}

func (pw *pdfWriter) newPage() {
	pw.pdf.AddPage()
	pw.y = margin
}

func (pw *pdfWriter) font(size float64) error {
	pw.size = size
	return pw.pdf.SetFont(fontFamily, "", size)
}

// ensure starts a new page when h points do not fit on the current one.
func (pw *pdfWriter) ensure(h float64) {
	if pw.y+h > pageHeight-margin {
		pw.newPage()
	}
}

func (pw *pdfWriter) lineHeight() float64 { return pw.size + lineGap }

// text writes s wrapped to width starting at x, advancing the cursor.
func (pw *pdfWriter) text(x, width float64, s string, align int) error {
	for _, para := range strings.Split(s, "\n") {
		lines := []string{""}
		if strings.TrimSpace(para) != "" {
			var err error
			if lines, err = pw.pdf.SplitText(para, width); err != nil {
				return err
			}
		}
		for _, line := range lines {
			pw.ensure(pw.lineHeight())
			pw.pdf.SetXY(x, pw.y)
			rect := &gopdf.Rect{W: width, H: pw.lineHeight()}
			if err := pw.pdf.CellWithOption(rect, line, gopdf.CellOption{Align: align | gopdf.Top}); err != nil {
				return err
			}
			pw.y += pw.lineHeight()
		}
	}
	return nil
}

func (pw *pdfWriter) rule(weight float64) {
	pw.pdf.SetLineWidth(weight)
	pw.pdf.Line(margin, pw.y, pageWidth-margin, pw.y)
	pw.y += lineGap * 2
}

func (pw *pdfWriter) document(doc render.Document) error {
	if err := pw.header(doc.Header); err != nil {
		return err
	}

	if len(doc.Instructions) > 0 {
		if err := pw.font(bodySize); err != nil {
			return err
		}
		if err := pw.text(margin, contentWidth, "GENERAL INSTRUCTIONS:", gopdf.Left); err != nil {
			return err
		}
		if err := pw.font(bodySize - 1); err != nil {
			return err
		}
		for _, line := range doc.Instructions {
			if err := pw.text(margin+12, contentWidth-12, "• "+line, gopdf.Left); err != nil {
				return err
			}
		}
		pw.y += lineGap * 2
	}

	for _, s := range doc.Sections {
		if err := pw.section(s); err != nil {
			return err
		}
	}

	pw.ensure(40)
	pw.y += 20
	pw.rule(0.5)
	if err := pw.font(8); err != nil {
		return err
	}
	return pw.text(margin, contentWidth, strings.ToUpper(doc.Footer), gopdf.Center)
}

func (pw *pdfWriter) header(h render.Header) error {
	steps := []struct {
		size float64
		text string
	}{
		{18, strings.ToUpper(h.SchoolName)},
		{bodySize, h.SchoolAddress},
		{14, strings.ToUpper(h.ExamType)},
	}
	for _, st := range steps {
		if err := pw.font(st.size); err != nil {
			return err
		}
		if err := pw.text(margin, contentWidth, st.text, gopdf.Center); err != nil {
			return err
		}
	}
	pw.rule(1.5)

	if err := pw.font(bodySize); err != nil {
		return err
	}
	half := contentWidth / 2
	rows := [][2]string{
		{"Class: " + h.ClassName, "Time: " + h.Time},
		{"Subject: " + h.Subject, fmt.Sprintf("Max Marks: %d", h.MaxMarks)},
	}
	for _, row := range rows {
		top := pw.y
		if err := pw.text(margin, half, row[0], gopdf.Left); err != nil {
			return err
		}
		pw.y = top
		if err := pw.text(margin+half, half, row[1], gopdf.Right); err != nil {
			return err
		}
	}
	pw.y += lineGap * 3
	return nil
}

func (pw *pdfWriter) section(s render.Section) error {
	pw.ensure(3 * (bodySize + lineGap))
	if err := pw.font(bodySize + 1); err != nil {
		return err
	}
	if err := pw.text(margin, contentWidth, "[ "+strings.ToUpper(s.Title)+" ]", gopdf.Center); err != nil {
		return err
	}
	if s.Instructions != "" {
		if err := pw.font(bodySize - 1); err != nil {
			return err
		}
		if err := pw.text(margin, contentWidth, s.Instructions, gopdf.Center); err != nil {
			return err
		}
	}
	pw.y += lineGap * 2

	if err := pw.font(bodySize); err != nil {
		return err
	}
	for _, item := range s.Items {
		if err := pw.item(item); err != nil {
			return err
		}
	}

	if err := pw.font(bodySize - 1); err != nil {
		return err
	}
	if err := pw.text(margin, contentWidth, s.Footer, gopdf.Right); err != nil {
		return err
	}
	pw.y += lineGap * 4
	return nil
}

func (pw *pdfWriter) item(item render.Item) error {
	const labelWidth, marksWidth = 32.0, 36.0
	body := margin + labelWidth
	bodyWidth := contentWidth - labelWidth - marksWidth

	pw.ensure(2 * pw.lineHeight())
	top := pw.y
	if err := pw.text(margin, labelWidth, item.Label, gopdf.Left); err != nil {
		return err
	}
	pw.y = top
	if err := pw.text(pageWidth-margin-marksWidth, marksWidth, item.Marks, gopdf.Right); err != nil {
		return err
	}
	pw.y = top
	if err := pw.text(body, bodyWidth, item.Text, gopdf.Left); err != nil {
		return err
	}

	switch item.Kind {
	case render.KindPassage:
		pw.y += lineGap
		start := pw.y
		if err := pw.text(body+10, bodyWidth-10, item.Passage, gopdf.Left); err != nil {
			return err
		}
		pw.pdf.SetLineWidth(2)
		pw.pdf.Line(body+2, start, body+2, pw.y)
	case render.KindOptions:
		half := bodyWidth / 2
		for i := 0; i < len(item.Options); i += 2 {
			top := pw.y
			if err := pw.text(body+12, half-12, item.Options[i], gopdf.Left); err != nil {
				return err
			}
			if i+1 < len(item.Options) {
				left := pw.y
				pw.y = top
				if err := pw.text(body+half, half, item.Options[i+1], gopdf.Left); err != nil {
					return err
				}
				pw.y = max(pw.y, left)
			}
		}
	case render.KindMatch:
		half := bodyWidth / 2
		for i := range item.Match.Left {
			top := pw.y
			if err := pw.text(body+12, half-12, item.Match.Left[i], gopdf.Left); err != nil {
				return err
			}
			left := pw.y
			pw.y = top
			if err := pw.text(body+half, half, item.Match.Right[i], gopdf.Left); err != nil {
				return err
			}
			pw.y = max(pw.y, left)
		}
	case render.KindAnswerSpace:
		pw.y += 2 * pw.lineHeight()
	}
	pw.y += lineGap * 2
	return nil
}
