package schema

// HeadName identifies one of the five classifier heads. The set is closed:
// every consumer matches exhaustively over these constants, and the voting
// engine refuses to produce a result unless all five are present.
type HeadName string

const (
	HeadBinary    HeadName = "binary"
	HeadFamily    HeadName = "family"
	HeadSeverity  HeadName = "severity"
	HeadTechnique HeadName = "technique"
	HeadHarm      HeadName = "harm"
)

// AllHeadNames returns the five known heads in canonical order.
func AllHeadNames() []HeadName {
	return []HeadName{HeadBinary, HeadFamily, HeadSeverity, HeadTechnique, HeadHarm}
}

// Known reports whether the head name is one of the five classifier heads.
func (h HeadName) Known() bool {
	switch h {
	case HeadBinary, HeadFamily, HeadSeverity, HeadTechnique, HeadHarm:
		return true
	}
	return false
}

// MultiLabel reports whether the head emits independent per-label
// probabilities instead of a distribution summing to one.
func (h HeadName) MultiLabel() bool {
	return h == HeadHarm
}
