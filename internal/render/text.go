package render

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/go-wordwrap"
)

// PageWidth is the column width of the plain-text layout.
const PageWidth = 80

// Text lays doc out as plain text, PageWidth columns wide.
func Text(doc Document) string {
	var b strings.Builder
	rule := strings.Repeat("=", PageWidth)

	center(&b, strings.ToUpper(doc.Header.SchoolName))
	center(&b, doc.Header.SchoolAddress)
	center(&b, strings.ToUpper(doc.Header.ExamType))
	b.WriteString(rule + "\n")
	columns(&b, "Class: "+doc.Header.ClassName, "Time: "+doc.Header.Time)
	columns(&b, "Subject: "+doc.Header.Subject, "Max Marks: "+strconv.Itoa(doc.Header.MaxMarks))
	b.WriteString("\n")

	if len(doc.Instructions) > 0 {
		b.WriteString("GENERAL INSTRUCTIONS:\n")
		for _, line := range doc.Instructions {
			wrap(&b, "  * ", "    ", line)
		}
		b.WriteString("\n")
	}

	for _, s := range doc.Sections {
		center(&b, "[ "+strings.ToUpper(s.Title)+" ]")
		if s.Instructions != "" {
			center(&b, s.Instructions)
		}
		b.WriteString("\n")
		for _, item := range s.Items {
			writeItem(&b, item)
		}
		right(&b, s.Footer)
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("-", PageWidth) + "\n")
	center(&b, strings.ToUpper(doc.Footer))
	return b.String()
}

func writeItem(b *strings.Builder, item Item) {
	indent := strings.Repeat(" ", len(item.Label)+1)
	width := PageWidth - len(item.Marks) - 1

	lines := wrapLines(item.Text, width-len(indent))
	if len(lines) == 0 {
		lines = []string{""}
	}
	columns(b, item.Label+" "+lines[0], item.Marks)
	for _, line := range lines[1:] {
		b.WriteString(indent + line + "\n")
	}

	switch item.Kind {
	case KindPassage:
		for _, para := range Lines(item.Passage) {
			wrap(b, indent+"| ", indent+"| ", para)
		}
	case KindOptions:
		for _, opt := range item.Options {
			wrap(b, indent+"  ", indent+"      ", opt)
		}
	case KindMatch:
		half := (PageWidth - len(indent)) / 2
		for i := range item.Match.Left {
			left := item.Match.Left[i]
			b.WriteString(indent + "  " + pad(left, half) + item.Match.Right[i] + "\n")
		}
	case KindAnswerSpace:
		b.WriteString("\n\n")
	}
	b.WriteString("\n")
}

func center(b *strings.Builder, s string) {
	n := utf8.RuneCountInString(s)
	if n < PageWidth {
		b.WriteString(strings.Repeat(" ", (PageWidth-n)/2))
	}
	b.WriteString(s + "\n")
}

func right(b *strings.Builder, s string) {
	n := utf8.RuneCountInString(s)
	if n < PageWidth {
		b.WriteString(strings.Repeat(" ", PageWidth-n))
	}
	b.WriteString(s + "\n")
}

func columns(b *strings.Builder, left, rightText string) {
	gap := PageWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(rightText)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(left + strings.Repeat(" ", gap) + rightText + "\n")
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-n)
}

func wrap(b *strings.Builder, first, rest, text string) {
	for i, line := range wrapLines(text, PageWidth-len(rest)) {
		if i == 0 {
			b.WriteString(first + line + "\n")
		} else {
			b.WriteString(rest + line + "\n")
		}
	}
}

// wrapLines breaks text into lines of at most width runes on word
// boundaries, keeping explicit line breaks. Runs of spaces collapse to one
// and words longer than width are left whole.
func wrapLines(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		wrapped := wordwrap.WrapString(strings.Join(words, " "), uint(width))
		out = append(out, strings.Split(wrapped, "\n")...)
	}
	if len(out) == 1 && out[0] == "" {
		return nil
	}
	return out
}
