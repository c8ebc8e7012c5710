// Package ai drafts exam questions with an external generative model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/model"
)

// DefaultCount is the number of questions asked for when a request leaves
// Count unset.
const DefaultCount = 3

// ErrDisabled is wrapped by the Noop generator.
var ErrDisabled = errors.New("ai suggestions are disabled")

// Request describes the questions to draft.
type Request struct {
	Subject   string
	ClassName string
	Type      model.QuestionType
	Count     int
}

// Generator drafts questions. Implementations return either every
// requested question or an error; a partial batch is never returned.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]model.Question, error)
}

// CollaboratorError reports a failed generation.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Noop is the generator used when no model is configured.
type Noop struct{}

func (Noop) Generate(context.Context, Request) ([]model.Question, error) {
	return nil, &CollaboratorError{Op: "generate", Err: ErrDisabled}
}

// Draft is one question as returned by the model, before normalization.
type Draft struct {
	Type    string            `json:"type"`
	Text    string            `json:"text"`
	Marks   *float64          `json:"marks"`
	Options []string          `json:"options,omitempty"`
	Passage string            `json:"passage,omitempty"`
	Pairs   []model.MatchPair `json:"pairs,omitempty"`
}

// Normalize turns model drafts into questions of the requested type with
// fresh ids. Any unusable draft fails the whole batch; no drafts is an
// empty, successful batch.
func Normalize(typ model.QuestionType, drafts []Draft) ([]model.Question, error) {
	out := make([]model.Question, len(drafts))
	for i, d := range drafts {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}
		if d.Marks == nil {
			return nil, fmt.Errorf("question %d has no marks", i+1)
		}
		marks := *d.Marks
		if marks < 0 || marks != math.Trunc(marks) || marks > document.MaxMarks {
			return nil, fmt.Errorf("question %d has invalid marks %v", i+1, marks)
		}
		if len(d.Options) > document.MaxChoices || len(d.Pairs) > document.MaxChoices {
			return nil, fmt.Errorf("question %d has more than %d options or pairs", i+1, document.MaxChoices)
		}
		out[i] = document.NormalizeShape(model.Question{
			ID:      document.NewQuestionID(),
			Type:    typ,
			Text:    text,
			Marks:   int(marks),
			Options: d.Options,
			Pairs:   d.Pairs,
			Passage: d.Passage,
		})
	}
	return out, nil
}
