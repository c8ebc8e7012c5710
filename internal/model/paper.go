package model

import (
	"time"

	"github.com/google/uuid"
)

// Duration is the time allowed for a paper.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Section is an ordered, titled group of questions.
type Section struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Instructions string     `json:"instructions"`
	Questions    []Question `json:"questions"`
}

// Paper is the root exam document. TotalMarks is derived from the question
// marks and is recomputed after every change; it is never set directly.
type Paper struct {
	SchoolName          string    `json:"schoolName"`
	SchoolAddress       string    `json:"schoolAddress"`
	ExamType            string    `json:"examType"`
	ClassName           string    `json:"className"`
	Subject             string    `json:"subject"`
	Duration            Duration  `json:"duration"`
	TotalMarks          int       `json:"totalMarks"`
	GeneralInstructions string    `json:"generalInstructions"`
	Sections            []Section `json:"sections"`
}

// PaperRecord is a stored paper owned by an author.
type PaperRecord struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  int       `json:"author_id"`
	Version   int       `json:"version"`
	Paper     Paper     `json:"paper"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaperSummary is the list projection of a stored paper.
type PaperSummary struct {
	ID         uuid.UUID `json:"id"`
	SchoolName string    `json:"school_name"`
	ExamType   string    `json:"exam_type"`
	ClassName  string    `json:"class_name"`
	Subject    string    `json:"subject"`
	TotalMarks int       `json:"total_marks"`
	Sections   int       `json:"sections"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpdatePaperRequest is the payload for editing paper metadata.
// totalMarks is deliberately absent: it is derived.
type UpdatePaperRequest struct {
	SchoolName          *string          `json:"schoolName" binding:"omitempty,max=255"`
	SchoolAddress       *string          `json:"schoolAddress" binding:"omitempty,max=1000"`
	ExamType            *string          `json:"examType" binding:"omitempty,max=100"`
	ClassName           *string          `json:"className" binding:"omitempty,class_name"`
	Subject             *string          `json:"subject" binding:"omitempty,max=100"`
	Duration            *DurationRequest `json:"duration" binding:"omitempty"`
	GeneralInstructions *string          `json:"generalInstructions" binding:"omitempty,max=10000"`
}

// DurationRequest mirrors Duration with validation rules.
type DurationRequest struct {
	Hours   int `json:"hours" binding:"min=0,max=24"`
	Minutes int `json:"minutes" binding:"min=0,max=59"`
}

// UpdateSectionRequest is the payload for a partial section update.
type UpdateSectionRequest struct {
	Title        *string     `json:"title" binding:"omitempty,max=255"`
	Instructions *string     `json:"instructions" binding:"omitempty,max=2000"`
	Questions    *[]Question `json:"questions" binding:"omitempty"`
}
