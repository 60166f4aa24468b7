// file: internals/features/normalize/service/matcher.go
package service

// PersonRef is the source-side reference to a person: a natural numeric id
// when the feed carries one, and the raw email string.
type PersonRef struct {
	NaturalID *int64
	Email     string
}

// MatchStrategy resolves a source reference to a stored surrogate/natural id.
type MatchStrategy interface {
	Name() string
	Resolve(ref PersonRef) (int64, bool)
}

// Matcher tries its strategies in rank order; the first success wins.
type Matcher struct {
	strategies []MatchStrategy
}

func NewMatcher(strategies ...MatchStrategy) *Matcher {
	return &Matcher{strategies: strategies}
}

func (m *Matcher) Resolve(ref PersonRef) (int64, bool) {
	for _, s := range m.strategies {
		if id, ok := s.Resolve(ref); ok {
			return id, true
		}
	}
	return 0, false
}

// naturalIDStrategy matches on the source's numeric id.
type naturalIDStrategy struct {
	byID map[int64]int64
}

func (s naturalIDStrategy) Name() string { return "natural-id" }

func (s naturalIDStrategy) Resolve(ref PersonRef) (int64, bool) {
	if ref.NaturalID == nil {
		return 0, false
	}
	id, ok := s.byID[*ref.NaturalID]
	return id, ok
}

// emailStrategy matches on the normalized email.
type emailStrategy struct {
	byEmail map[string]int64
}

func (s emailStrategy) Name() string { return "normalized-email" }

func (s emailStrategy) Resolve(ref PersonRef) (int64, bool) {
	e := NormalizeEmail(ref.Email)
	if e == "" {
		return 0, false
	}
	id, ok := s.byEmail[e]
	return id, ok
}

// NewStaffMatcher builds the staff matcher: natural external id first, then
// normalized email. Ids in staff feeds are known to be unreliable, so the
// email rank catches rows the id rank cannot.
func NewStaffMatcher(byExternalID map[int64]int64, byEmail map[string]int64) *Matcher {
	return NewMatcher(
		naturalIDStrategy{byID: byExternalID},
		emailStrategy{byEmail: byEmail},
	)
}

// NewStudentMatcher builds the student matcher. Student feeds carry reliable
// numeric ids, so the email rank exists only as a fallback.
func NewStudentMatcher(byID map[int64]int64, byEmail map[string]int64) *Matcher {
	return NewMatcher(
		naturalIDStrategy{byID: byID},
		emailStrategy{byEmail: byEmail},
	)
}
