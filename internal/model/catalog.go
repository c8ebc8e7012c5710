package model

// Classes is the fixed class list a paper can target.
var Classes = []string{
	"Class I", "Class II", "Class III", "Class IV", "Class V", "Class VI",
	"Class VII", "Class VIII", "Class IX", "Class X", "Class XI", "Class XII",
}

// Subjects are the suggested subjects; papers may use any subject string.
var Subjects = []string{
	"Hindi", "English", "Mathematics", "Science", "Social Science",
	"Computer Science", "Sanskrit", "Custom",
}

// ExamTypes are the suggested exam types; papers may use any exam type string.
var ExamTypes = []string{
	"Unit Test", "Half Yearly", "Annual Examination", "Board Examination", "Custom Exam",
}

// DefaultGeneralInstructions seeds the instructions of a new paper.
const DefaultGeneralInstructions = "1. All questions are compulsory.\n" +
	"2. The question paper consists of 4 sections A, B, C, and D.\n" +
	"3. Marks for each question are indicated against it.\n" +
	"4. Use of calculator is strictly prohibited."

// MathSymbols and SanskritSymbols are the editor's insertion palettes.
var (
	MathSymbols = []string{
		"√", "π", "∑", "∫", "≤", "≥", "×", "÷", "≠", "±",
		"∞", "α", "β", "γ", "Δ", "θ", "λ", "μ", "σ", "Ω",
	}
	SanskritSymbols = []string{"।", "॥", "ऽ", "ॐ", "ं", "ः"}
)

// ValidClass reports whether name is one of Classes.
func ValidClass(name string) bool {
	for _, c := range Classes {
		if c == name {
			return true
		}
	}
	return false
}

// QuestionTypeInfo describes a question type for editor clients.
type QuestionTypeInfo struct {
	Type         QuestionType `json:"type"`
	DefaultMarks int          `json:"default_marks"`
	HasOptions   bool         `json:"has_options"`
	HasPairs     bool         `json:"has_pairs"`
	HasPassage   bool         `json:"has_passage"`
}

// Catalog is the static vocabulary served to editor clients.
type Catalog struct {
	Classes         []string           `json:"classes"`
	Subjects        []string           `json:"subjects"`
	ExamTypes       []string           `json:"exam_types"`
	QuestionTypes   []QuestionTypeInfo `json:"question_types"`
	MathSymbols     []string           `json:"math_symbols"`
	SanskritSymbols []string           `json:"sanskrit_symbols"`
}

// NewCatalog assembles the catalog from the package vocabularies.
func NewCatalog() Catalog {
	types := make([]QuestionTypeInfo, len(QuestionTypes))
	for i, t := range QuestionTypes {
		types[i] = QuestionTypeInfo{
			Type:         t,
			DefaultMarks: t.DefaultMarks(),
			HasOptions:   t.HasOptions(),
			HasPairs:     t.HasPairs(),
			HasPassage:   t.HasPassage(),
		}
	}
	return Catalog{
		Classes:         Classes,
		Subjects:        Subjects,
		ExamTypes:       ExamTypes,
		QuestionTypes:   types,
		MathSymbols:     MathSymbols,
		SanskritSymbols: SanskritSymbols,
	}
}
