package document

import "github.com/stemsi/papercraft/internal/model"

const defaultOptionCount = 4

// AddQuestion appends a blank question of type typ to the section, carrying
// the type's default marks and shape.
func AddQuestion(p model.Paper, sectionID string, typ model.QuestionType) (model.Paper, model.Question, error) {
	if !typ.Valid() {
		return p, model.Question{}, ErrInvalidQuestionType
	}
	idx := sectionIndex(p, sectionID)
	if idx < 0 {
		return p, model.Question{}, ErrSectionNotFound
	}

	q := model.Question{
		ID:    NewQuestionID(),
		Type:  typ,
		Marks: typ.DefaultMarks(),
	}
	switch {
	case typ.HasOptions():
		q.Options = make([]string, defaultOptionCount)
	case typ.HasPairs():
		q.Pairs = []model.MatchPair{{}}
	}

	out := Clone(p)
	out.Sections[idx].Questions = append(out.Sections[idx].Questions, q)
	return RecomputeTotalMarks(out), cloneQuestion(q), nil
}

// QuestionPatch carries the question fields to change. Nil fields are kept.
type QuestionPatch struct {
	Text          *string
	Marks         *int
	Options       *[]string
	Pairs         *[]model.MatchPair
	Passage       *string
	CorrectAnswer *string
}

// UpdateQuestion merges patch into the question. Fields that do not apply to
// the question's type are rejected with ErrFieldNotApplicable.
func UpdateQuestion(p model.Paper, sectionID, questionID string, patch QuestionPatch) (model.Paper, error) {
	si, qi, err := questionIndex(p, sectionID, questionID)
	if err != nil {
		return p, err
	}

	typ := p.Sections[si].Questions[qi].Type
	if patch.Options != nil && !typ.HasOptions() ||
		patch.Pairs != nil && !typ.HasPairs() ||
		patch.Passage != nil && !typ.HasPassage() {
		return p, ErrFieldNotApplicable
	}
	q0 := p.Sections[si].Questions[qi]
	marks, options, pairs := q0.Marks, len(q0.Options), len(q0.Pairs)
	if patch.Marks != nil {
		marks = *patch.Marks
	}
	if patch.Options != nil {
		options = len(*patch.Options)
	}
	if patch.Pairs != nil {
		pairs = len(*patch.Pairs)
	}
	if err := checkLimits(marks, options, pairs); err != nil {
		return p, err
	}

	out := Clone(p)
	q := &out.Sections[si].Questions[qi]
	setString(&q.Text, patch.Text)
	setString(&q.Passage, patch.Passage)
	setString(&q.CorrectAnswer, patch.CorrectAnswer)
	if patch.Marks != nil {
		q.Marks = *patch.Marks
	}
	if patch.Options != nil {
		q.Options = append([]string{}, *patch.Options...)
	}
	if patch.Pairs != nil {
		q.Pairs = append([]model.MatchPair{}, *patch.Pairs...)
	}
	return RecomputeTotalMarks(out), nil
}

// DeleteQuestion removes the question from its section.
func DeleteQuestion(p model.Paper, sectionID, questionID string) (model.Paper, error) {
	si, qi, err := questionIndex(p, sectionID, questionID)
	if err != nil {
		return p, err
	}
	out := Clone(p)
	qs := out.Sections[si].Questions
	out.Sections[si].Questions = append(qs[:qi], qs[qi+1:]...)
	return RecomputeTotalMarks(out), nil
}

// MoveQuestion moves the question to position index within its section,
// clamped to the list bounds.
func MoveQuestion(p model.Paper, sectionID, questionID string, index int) (model.Paper, error) {
	si, qi, err := questionIndex(p, sectionID, questionID)
	if err != nil {
		return p, err
	}
	out := Clone(p)
	out.Sections[si].Questions = move(out.Sections[si].Questions, qi, index)
	return RecomputeTotalMarks(out), nil
}

// AppendQuestions adds already-built questions to the end of a section.
// They are checked like a replacement list; new ids are assigned to any
// question without one.
func AppendQuestions(p model.Paper, sectionID string, qs []model.Question) (model.Paper, error) {
	idx := sectionIndex(p, sectionID)
	if idx < 0 {
		return p, ErrSectionNotFound
	}
	combined := append(cloneSection(p.Sections[idx]).Questions, qs...)
	prepared, err := prepareQuestions(p, sectionID, combined)
	if err != nil {
		return p, err
	}
	out := Clone(p)
	out.Sections[idx].Questions = prepared
	return RecomputeTotalMarks(out), nil
}

// NormalizeShape drops the fields that do not apply to q's type.
func NormalizeShape(q model.Question) model.Question {
	if !q.Type.HasOptions() {
		q.Options = nil
	} else if q.Options == nil {
		q.Options = []string{}
	}
	if !q.Type.HasPairs() {
		q.Pairs = nil
	} else if q.Pairs == nil {
		q.Pairs = []model.MatchPair{}
	}
	if !q.Type.HasPassage() {
		q.Passage = ""
	}
	return q
}

func questionIndex(p model.Paper, sectionID, questionID string) (int, int, error) {
	si := sectionIndex(p, sectionID)
	if si < 0 {
		return -1, -1, ErrSectionNotFound
	}
	for qi, q := range p.Sections[si].Questions {
		if q.ID == questionID {
			return si, qi, nil
		}
	}
	return -1, -1, ErrQuestionNotFound
}
