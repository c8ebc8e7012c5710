package model

// QuestionType is the closed set of question kinds a paper can hold.
// The string values are the persisted document format.
type QuestionType string

const (
	QuestionTypeMCQ            QuestionType = "MCQ"
	QuestionTypeVeryShort      QuestionType = "Very Short Answer"
	QuestionTypeShort          QuestionType = "Short Answer"
	QuestionTypeLong           QuestionType = "Long Answer"
	QuestionTypeFillBlanks     QuestionType = "Fill in the Blanks"
	QuestionTypeTrueFalse      QuestionType = "True / False"
	QuestionTypeMatchFollowing QuestionType = "Match the Following"
	QuestionTypeCaseStudy      QuestionType = "Case Study Based"
	QuestionTypePassage        QuestionType = "Passage Based"
	QuestionTypePractical      QuestionType = "Practical Questions"
)

// QuestionTypes lists every question type in editor order.
var QuestionTypes = []QuestionType{
	QuestionTypeMCQ,
	QuestionTypeVeryShort,
	QuestionTypeShort,
	QuestionTypeLong,
	QuestionTypeFillBlanks,
	QuestionTypeTrueFalse,
	QuestionTypeMatchFollowing,
	QuestionTypeCaseStudy,
	QuestionTypePassage,
	QuestionTypePractical,
}

// Valid reports whether t belongs to the closed set.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DefaultMarks returns the marks a freshly added question of this type carries.
func (t QuestionType) DefaultMarks() int {
	switch t {
	case QuestionTypeMCQ, QuestionTypeVeryShort, QuestionTypeFillBlanks:
		return 1
	case QuestionTypeShort:
		return 3
	default:
		return 5
	}
}

// HasOptions reports whether questions of this type carry lettered options.
func (t QuestionType) HasOptions() bool { return t == QuestionTypeMCQ }

// HasPairs reports whether questions of this type carry match pairs.
func (t QuestionType) HasPairs() bool { return t == QuestionTypeMatchFollowing }

// HasPassage reports whether questions of this type carry a passage block.
func (t QuestionType) HasPassage() bool {
	return t == QuestionTypePassage || t == QuestionTypeCaseStudy
}

// MatchPair is one row of a match-the-following question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question is one testable item of a section.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Marks         int          `json:"marks"`
	Options       []string     `json:"options,omitempty"`
	Pairs         []MatchPair  `json:"pairs,omitempty"`
	Passage       string       `json:"passage,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
}

// AddQuestionRequest is the payload for adding a blank question to a section.
type AddQuestionRequest struct {
	Type string `json:"type" binding:"required,question_type"`
}

// UpdateQuestionRequest is the payload for a partial question update.
// Nil fields are left untouched.
type UpdateQuestionRequest struct {
	Text          *string      `json:"text" binding:"omitempty,max=5000"`
	Marks         *int         `json:"marks" binding:"omitempty,min=0,max=1000"`
	Options       *[]string    `json:"options" binding:"omitempty,max=26"`
	Pairs         *[]MatchPair `json:"pairs" binding:"omitempty,max=26"`
	Passage       *string      `json:"passage" binding:"omitempty,max=20000"`
	CorrectAnswer *string      `json:"correctAnswer" binding:"omitempty,max=2000"`
}

// MoveRequest moves a section or question to a new zero-based position.
type MoveRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}
