// Package document holds the exam paper model operations.
//
// Every operation takes a model.Paper by value and returns a new Paper; the
// input is never modified and the result shares no slices with it. Each
// operation finishes with RecomputeTotalMarks, so a returned Paper always
// satisfies TotalMarks == sum of question marks.
package document

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/papercraft/internal/model"
)

// Model errors.
var (
	ErrSectionNotFound     = errors.New("section not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrFieldNotApplicable  = errors.New("field not applicable to question type")
	ErrNegativeMarks       = errors.New("marks must not be negative")
	ErrInvalidQuestionType = errors.New("invalid question type")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrNegativeDuration    = errors.New("duration must not be negative")
	ErrMarksTooLarge       = errors.New("marks must not exceed 1000")
	ErrTooManyChoices      = errors.New("a question has at most 26 options or pairs")
)

// Limits on a single question. Options and pairs are lettered a to z.
const (
	MaxMarks   = 1000
	MaxChoices = 26
)

// New returns the paper a fresh editor session starts from: one section,
// no questions.
func New() model.Paper {
	p := model.Paper{
		ExamType:            "Annual Examination",
		ClassName:           "Class X",
		Subject:             "Science",
		Duration:            model.Duration{Hours: 3},
		GeneralInstructions: model.DefaultGeneralInstructions,
		Sections: []model.Section{{
			ID:           NewSectionID(),
			Title:        SectionTitle(0),
			Instructions: "Choose the correct option.",
			Questions:    []model.Question{},
		}},
	}
	return RecomputeTotalMarks(p)
}

// NewSectionID returns a section id unique for the life of any document.
func NewSectionID() string { return "sec_" + uuid.NewString() }

// NewQuestionID returns a question id unique for the life of any document.
func NewQuestionID() string { return "q_" + uuid.NewString() }

// SectionTitle derives the auto title for the section at position n:
// Section A … Section Z, then Section AA, Section AB, …
func SectionTitle(n int) string {
	var b []byte
	for n >= 0 {
		b = append([]byte{byte('A' + n%26)}, b...)
		n = n/26 - 1
	}
	return "Section " + string(b)
}

// RecomputeTotalMarks returns p with TotalMarks set to the sum of every
// question's marks.
func RecomputeTotalMarks(p model.Paper) model.Paper {
	p.TotalMarks = TotalMarks(p)
	return p
}

// TotalMarks sums the marks of every question of every section.
func TotalMarks(p model.Paper) int {
	total := 0
	for _, s := range p.Sections {
		total += SectionMarks(s)
	}
	return total
}

// SectionMarks sums the marks of one section.
func SectionMarks(s model.Section) int {
	total := 0
	for _, q := range s.Questions {
		total += q.Marks
	}
	return total
}

// MetadataPatch carries the paper-level fields to change. Nil fields are kept.
type MetadataPatch struct {
	SchoolName          *string
	SchoolAddress       *string
	ExamType            *string
	ClassName           *string
	Subject             *string
	Duration            *model.Duration
	GeneralInstructions *string
}

// UpdateMetadata applies the scalar fields of patch.
func UpdateMetadata(p model.Paper, patch MetadataPatch) (model.Paper, error) {
	if d := patch.Duration; d != nil && (d.Hours < 0 || d.Minutes < 0) {
		return p, ErrNegativeDuration
	}
	out := Clone(p)
	setString(&out.SchoolName, patch.SchoolName)
	setString(&out.SchoolAddress, patch.SchoolAddress)
	setString(&out.ExamType, patch.ExamType)
	setString(&out.ClassName, patch.ClassName)
	setString(&out.Subject, patch.Subject)
	setString(&out.GeneralInstructions, patch.GeneralInstructions)
	if patch.Duration != nil {
		out.Duration = *patch.Duration
	}
	return RecomputeTotalMarks(out), nil
}

// AddSection appends an empty section titled after the current section count.
func AddSection(p model.Paper) (model.Paper, model.Section) {
	out := Clone(p)
	s := model.Section{
		ID:        NewSectionID(),
		Title:     SectionTitle(len(out.Sections)),
		Questions: []model.Question{},
	}
	out.Sections = append(out.Sections, s)
	return RecomputeTotalMarks(out), cloneSection(s)
}

// DeleteSection removes the section with the given id.
func DeleteSection(p model.Paper, sectionID string) (model.Paper, error) {
	idx := sectionIndex(p, sectionID)
	if idx < 0 {
		return p, ErrSectionNotFound
	}
	out := Clone(p)
	out.Sections = append(out.Sections[:idx], out.Sections[idx+1:]...)
	return RecomputeTotalMarks(out), nil
}

// SectionPatch carries the section fields to change. Nil fields are kept.
// Questions replaces the whole question list.
type SectionPatch struct {
	Title        *string
	Instructions *string
	Questions    *[]model.Question
}

// UpdateSection merges patch into the section with the given id. A
// replacement question list is validated and normalized before it is used.
func UpdateSection(p model.Paper, sectionID string, patch SectionPatch) (model.Paper, error) {
	idx := sectionIndex(p, sectionID)
	if idx < 0 {
		return p, ErrSectionNotFound
	}

	var questions []model.Question
	if patch.Questions != nil {
		var err error
		questions, err = prepareQuestions(p, sectionID, *patch.Questions)
		if err != nil {
			return p, err
		}
	}

	out := Clone(p)
	s := &out.Sections[idx]
	setString(&s.Title, patch.Title)
	setString(&s.Instructions, patch.Instructions)
	if patch.Questions != nil {
		s.Questions = questions
	}
	return RecomputeTotalMarks(out), nil
}

// MoveSection moves the section to position index, clamped to the list bounds.
func MoveSection(p model.Paper, sectionID string, index int) (model.Paper, error) {
	idx := sectionIndex(p, sectionID)
	if idx < 0 {
		return p, ErrSectionNotFound
	}
	out := Clone(p)
	out.Sections = move(out.Sections, idx, index)
	return RecomputeTotalMarks(out), nil
}

// prepareQuestions validates a replacement list for the section sectionID:
// types must be known, marks within 0..MaxMarks, at most MaxChoices options
// or pairs, and ids unique across the paper.
// Missing ids are generated and inapplicable fields are dropped.
func prepareQuestions(p model.Paper, sectionID string, in []model.Question) ([]model.Question, error) {
	seen := make(map[string]struct{})
	for _, s := range p.Sections {
		if s.ID == sectionID {
			continue
		}
		for _, q := range s.Questions {
			seen[q.ID] = struct{}{}
		}
	}

	out := make([]model.Question, len(in))
	for i, q := range in {
		if !q.Type.Valid() {
			return nil, ErrInvalidQuestionType
		}
		if err := checkLimits(q.Marks, len(q.Options), len(q.Pairs)); err != nil {
			return nil, err
		}
		q = cloneQuestion(q)
		if strings.TrimSpace(q.ID) == "" {
			q.ID = NewQuestionID()
		}
		if _, dup := seen[q.ID]; dup {
			return nil, ErrDuplicateID
		}
		seen[q.ID] = struct{}{}
		out[i] = NormalizeShape(q)
	}
	return out, nil
}

func checkLimits(marks, options, pairs int) error {
	switch {
	case marks < 0:
		return ErrNegativeMarks
	case marks > MaxMarks:
		return ErrMarksTooLarge
	case options > MaxChoices, pairs > MaxChoices:
		return ErrTooManyChoices
	}
	return nil
}

func sectionIndex(p model.Paper, sectionID string) int {
	for i, s := range p.Sections {
		if s.ID == sectionID {
			return i
		}
	}
	return -1
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// move returns items with the element at from relocated to to.
func move[T any](items []T, from, to int) []T {
	if to < 0 {
		to = 0
	}
	if to >= len(items) {
		to = len(items) - 1
	}
	if from == to {
		return items
	}
	item := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]T{item}, items[to:]...)...)
	return items
}
