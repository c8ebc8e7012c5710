package document

import "github.com/stemsi/papercraft/internal/model"

// Clone returns a deep copy of p. Sections and Questions of the copy are
// never nil.
func Clone(p model.Paper) model.Paper {
	out := p
	out.Sections = make([]model.Section, len(p.Sections))
	for i, s := range p.Sections {
		out.Sections[i] = cloneSection(s)
	}
	return out
}

func cloneSection(s model.Section) model.Section {
	out := s
	out.Questions = make([]model.Question, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = cloneQuestion(q)
	}
	return out
}

func cloneQuestion(q model.Question) model.Question {
	out := q
	if q.Options != nil {
		out.Options = append([]string(nil), q.Options...)
	}
	if q.Pairs != nil {
		out.Pairs = append([]model.MatchPair(nil), q.Pairs...)
	}
	return out
}
