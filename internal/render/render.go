// Package render projects a paper into its print layout.
package render

import (
	"fmt"
	"strings"

	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/model"
)

// Placeholders printed for empty header fields.
const (
	PlaceholderSchoolName    = "School Name"
	PlaceholderSchoolAddress = "School Address Line"
	PlaceholderExamType      = "Examination"

	EndOfPaper = "End of Question Paper"
)

// Kind tells a layout how to draw the block under a question's text.
type Kind string

const (
	KindPlain       Kind = "plain"
	KindOptions     Kind = "options"
	KindMatch       Kind = "match"
	KindPassage     Kind = "passage"
	KindAnswerSpace Kind = "answer_space"
)

// Document is the print layout of one paper.
type Document struct {
	Header       Header    `json:"header"`
	Instructions []string  `json:"instructions"`
	Sections     []Section `json:"sections"`
	Footer       string    `json:"footer"`
}

// Header is the title block and the info row.
type Header struct {
	SchoolName    string `json:"school_name"`
	SchoolAddress string `json:"school_address"`
	ExamType      string `json:"exam_type"`
	ClassName     string `json:"class_name"`
	Subject       string `json:"subject"`
	Time          string `json:"time"`
	MaxMarks      int    `json:"max_marks"`
}

// Section is a titled run of numbered items followed by its marks footer.
type Section struct {
	Title        string `json:"title"`
	Instructions string `json:"instructions,omitempty"`
	Items        []Item `json:"items"`
	Marks        int    `json:"marks"`
	Footer       string `json:"footer"`
}

// Item is one printed question.
type Item struct {
	Label   string        `json:"label"`
	Text    string        `json:"text"`
	Marks   string        `json:"marks"`
	Kind    Kind          `json:"kind"`
	Options []string      `json:"options,omitempty"`
	Match   *MatchColumns `json:"match,omitempty"`
	Passage string        `json:"passage,omitempty"`
}

// MatchColumns holds the two columns of a match-the-following question:
// numbered on the left, lettered on the right.
type MatchColumns struct {
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// Render builds the print layout of p. It never fails on missing optional
// fields; they render as empty blocks.
func Render(p model.Paper) Document {
	doc := Document{
		Header: Header{
			SchoolName:    orPlaceholder(p.SchoolName, PlaceholderSchoolName),
			SchoolAddress: orPlaceholder(p.SchoolAddress, PlaceholderSchoolAddress),
			ExamType:      orPlaceholder(p.ExamType, PlaceholderExamType),
			ClassName:     p.ClassName,
			Subject:       p.Subject,
			Time:          fmt.Sprintf("%dh %dm", p.Duration.Hours, p.Duration.Minutes),
			MaxMarks:      document.TotalMarks(p),
		},
		Instructions: Lines(p.GeneralInstructions),
		Sections:     make([]Section, len(p.Sections)),
		Footer:       EndOfPaper,
	}
	for i, s := range p.Sections {
		doc.Sections[i] = renderSection(s)
	}
	return doc
}

// Lines splits text on line breaks, trims each line and drops blank ones.
func Lines(text string) []string {
	lines := []string{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Letter returns the option marker for position i: (a) … (z), then (aa),
// (ab), …
func Letter(i int) string {
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('a' + i%26)}, b...)
		i = i/26 - 1
	}
	return "(" + string(b) + ")"
}

func renderSection(s model.Section) Section {
	marks := document.SectionMarks(s)
	out := Section{
		Title:        s.Title,
		Instructions: strings.TrimSpace(s.Instructions),
		Items:        make([]Item, len(s.Questions)),
		Marks:        marks,
		Footer:       fmt.Sprintf("Total Marks for %s: %d", s.Title, marks),
	}
	for i, q := range s.Questions {
		out.Items[i] = renderQuestion(i+1, q)
	}
	return out
}

func renderQuestion(n int, q model.Question) Item {
	item := Item{
		Label: fmt.Sprintf("Q.%d.", n),
		Text:  q.Text,
		Marks: fmt.Sprintf("[%d]", q.Marks),
		Kind:  KindPlain,
	}

	switch q.Type {
	case model.QuestionTypeMCQ:
		item.Kind = KindOptions
		item.Options = make([]string, len(q.Options))
		for i, opt := range q.Options {
			item.Options[i] = Letter(i) + " " + opt
		}
	case model.QuestionTypeMatchFollowing:
		item.Kind = KindMatch
		cols := &MatchColumns{
			Left:  make([]string, len(q.Pairs)),
			Right: make([]string, len(q.Pairs)),
		}
		for i, pair := range q.Pairs {
			cols.Left[i] = fmt.Sprintf("%d. %s", i+1, pair.Left)
			cols.Right[i] = Letter(i) + " " + pair.Right
		}
		item.Match = cols
	case model.QuestionTypePassage, model.QuestionTypeCaseStudy:
		if q.Passage != "" {
			item.Kind = KindPassage
			item.Passage = q.Passage
		}
	case model.QuestionTypeShort, model.QuestionTypeLong:
		item.Kind = KindAnswerSpace
	case model.QuestionTypeVeryShort, model.QuestionTypeFillBlanks,
		model.QuestionTypeTrueFalse, model.QuestionTypePractical:
	default:
		// Every stored question passed type validation; reaching this means a
		// type was added to the model without a layout.
		panic(fmt.Sprintf("render: no layout for question type %q", q.Type))
	}
	return item
}

func orPlaceholder(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}
