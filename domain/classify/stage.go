// Package classify provides the domain model for task classification.
package classify

// Stage identifies one step of the fixed classification pipeline.
type Stage string

const (
	StageInput      Stage = "input"
	StageWorkType   Stage = "worktype"
	StageCategory   Stage = "category"
	StageSearchType Stage = "searchtype"
	StageConfidence Stage = "confidence"
	StageDone       Stage = "done"
)

// IsTerminal returns true for the terminal pipeline stage.
func (s Stage) IsTerminal() bool {
	return s == StageDone
}

// IsValid returns true if the stage is part of the fixed pipeline.
func (s Stage) IsValid() bool {
	switch s {
	case StageInput, StageWorkType, StageCategory, StageSearchType, StageConfidence, StageDone:
		return true
	default:
		return false
	}
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// AllStages returns the pipeline stages in execution order.
func AllStages() []Stage {
	return []Stage{
		StageInput,
		StageWorkType,
		StageCategory,
		StageSearchType,
		StageConfidence,
		StageDone,
	}
}

// Next returns the stage following s in the fixed pipeline order. The
// terminal stage maps to itself.
func (s Stage) Next() Stage {
	switch s {
	case StageInput:
		return StageWorkType
	case StageWorkType:
		return StageCategory
	case StageCategory:
		return StageSearchType
	case StageSearchType:
		return StageConfidence
	case StageConfidence:
		return StageDone
	default:
		return StageDone
	}
}
