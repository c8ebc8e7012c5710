package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/validator"
)

// ParseError reports why a serialized paper was rejected.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "invalid paper document: " + e.Reason }

// The raw shapes use pointers so that absent fields can be told apart from
// zero values.
type rawPaper struct {
	SchoolName          *string      `json:"schoolName" validate:"required"`
	SchoolAddress       *string      `json:"schoolAddress" validate:"required"`
	ExamType            *string      `json:"examType" validate:"required"`
	ClassName           *string      `json:"className" validate:"required"`
	Subject             *string      `json:"subject" validate:"required"`
	Duration            *rawDuration `json:"duration" validate:"required"`
	TotalMarks          *int         `json:"totalMarks" validate:"required"`
	GeneralInstructions *string      `json:"generalInstructions" validate:"required"`
	Sections            []rawSection `json:"sections" validate:"required,dive"`
}

type rawDuration struct {
	Hours   *int `json:"hours" validate:"required,min=0"`
	Minutes *int `json:"minutes" validate:"required,min=0"`
}

type rawSection struct {
	ID           *string       `json:"id" validate:"required,min=1"`
	Title        *string       `json:"title" validate:"required"`
	Instructions *string       `json:"instructions"`
	Questions    []rawQuestion `json:"questions" validate:"required,dive"`
}

type rawQuestion struct {
	ID            *string           `json:"id" validate:"required,min=1"`
	Type          *string           `json:"type" validate:"required,question_type"`
	Text          *string           `json:"text" validate:"required"`
	Marks         *int              `json:"marks" validate:"required,min=0,max=1000"`
	Options       []string          `json:"options" validate:"max=26"`
	Pairs         []model.MatchPair `json:"pairs" validate:"max=26"`
	Passage       *string           `json:"passage"`
	CorrectAnswer *string           `json:"correctAnswer"`
	SubQuestions  []json.RawMessage `json:"subQuestions"`
}

var structValidator = validator.New()

// ReplaceDocument parses and validates a serialized paper. The stored
// totalMarks must be present but is replaced by the recomputed sum, and
// fields that do not apply to a question's type are dropped. Nested
// sub-questions are rejected rather than dropped.
func ReplaceDocument(raw []byte) (model.Paper, error) {
	var rp rawPaper
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&rp); err != nil {
		return model.Paper{}, &ParseError{Reason: decodeReason(err)}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.Paper{}, &ParseError{Reason: "unexpected data after the document"}
	}
	if err := structValidator.Struct(&rp); err != nil {
		return model.Paper{}, &ParseError{Reason: validationReason(err)}
	}

	p := model.Paper{
		SchoolName:          *rp.SchoolName,
		SchoolAddress:       *rp.SchoolAddress,
		ExamType:            *rp.ExamType,
		ClassName:           *rp.ClassName,
		Subject:             *rp.Subject,
		Duration:            model.Duration{Hours: *rp.Duration.Hours, Minutes: *rp.Duration.Minutes},
		GeneralInstructions: *rp.GeneralInstructions,
		Sections:            make([]model.Section, len(rp.Sections)),
	}

	seen := make(map[string]struct{})
	claim := func(id string) error {
		if _, dup := seen[id]; dup {
			return &ParseError{Reason: fmt.Sprintf("duplicate id %q", id)}
		}
		seen[id] = struct{}{}
		return nil
	}

	for i, rs := range rp.Sections {
		if err := claim(*rs.ID); err != nil {
			return model.Paper{}, err
		}
		s := model.Section{
			ID:        *rs.ID,
			Title:     *rs.Title,
			Questions: make([]model.Question, len(rs.Questions)),
		}
		if rs.Instructions != nil {
			s.Instructions = *rs.Instructions
		}
		for j, rq := range rs.Questions {
			if err := claim(*rq.ID); err != nil {
				return model.Paper{}, err
			}
			if len(rq.SubQuestions) > 0 {
				return model.Paper{}, &ParseError{Reason: fmt.Sprintf("sections[%d].questions[%d].subQuestions are not supported", i, j)}
			}
			q := model.Question{
				ID:      *rq.ID,
				Type:    model.QuestionType(*rq.Type),
				Text:    *rq.Text,
				Marks:   *rq.Marks,
				Options: rq.Options,
				Pairs:   rq.Pairs,
			}
			if rq.Passage != nil {
				q.Passage = *rq.Passage
			}
			if rq.CorrectAnswer != nil {
				q.CorrectAnswer = *rq.CorrectAnswer
			}
			s.Questions[j] = NormalizeShape(q)
		}
		p.Sections[i] = s
	}
	return RecomputeTotalMarks(p), nil
}

func decodeReason(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "document"
		}
		return fmt.Sprintf("%s must be %s, got %s", field, jsonKind(typeErr.Type.Kind().String()), typeErr.Value)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "document is empty or truncated"
	default:
		return err.Error()
	}
}

func jsonKind(goKind string) string {
	switch goKind {
	case "int", "int64", "float64":
		return "an integer"
	case "string":
		return "a string"
	case "slice":
		return "an array"
	case "struct", "map":
		return "an object"
	default:
		return goKind
	}
}

func validationReason(err error) string {
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}
	fe := ve[0]
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return path + " is required"
	case "min":
		if fe.Kind().String() == "string" {
			return path + " must not be empty"
		}
		return path + " must be at least " + fe.Param()
	case "max":
		if fe.Kind().String() == "slice" {
			return path + " must have at most " + fe.Param() + " entries"
		}
		return path + " must be at most " + fe.Param()
	case "question_type":
		return fmt.Sprintf("%s %q is not a known question type", path, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}
}
