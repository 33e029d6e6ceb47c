// Package pipeline runs the fixed five-stage task classification statechart.
package pipeline

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/tripwing/tripwing/domain/classify"
	"github.com/tripwing/tripwing/infrastructure/logging"
)

// Context carries the classification through the statechart.
type Context struct {
	Classification *classify.Classification
}

// Stage IDs as statekit state IDs.
const (
	stateInput      statekit.StateID = statekit.StateID(classify.StageInput)
	stateWorkType   statekit.StateID = statekit.StateID(classify.StageWorkType)
	stateCategory   statekit.StateID = statekit.StateID(classify.StageCategory)
	stateSearchType statekit.StateID = statekit.StateID(classify.StageSearchType)
	stateConfidence statekit.StateID = statekit.StateID(classify.StageConfidence)
	stateDone       statekit.StateID = statekit.StateID(classify.StageDone)
)

const eventAdvance statekit.EventType = "ADVANCE"

// NewClassifierMachine creates the classification statechart. Stages only
// ever advance forward; faults are absorbed into the context, never routed
// to a failure state.
func NewClassifierMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("classifier").
		WithInitial(stateInput).
		WithContext(&Context{}).
		WithAction("logEntry", logStageEntry).
		State(stateInput).
		OnEntry("logEntry").
		On(eventAdvance).Target(stateWorkType).
		Done().
		State(stateWorkType).
		OnEntry("logEntry").
		On(eventAdvance).Target(stateCategory).
		Done().
		State(stateCategory).
		OnEntry("logEntry").
		On(eventAdvance).Target(stateSearchType).
		Done().
		State(stateSearchType).
		OnEntry("logEntry").
		On(eventAdvance).Target(stateConfidence).
		Done().
		State(stateConfidence).
		OnEntry("logEntry").
		On(eventAdvance).Target(stateDone).
		Done().
		State(stateDone).
		Final().
		OnEntry("logEntry").
		Done().
		Build()
}

// logStageEntry logs stage entries. Actions receive a pointer to the
// context; since the context is *Context the parameter is **Context.
func logStageEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Classification == nil {
		return
	}
	logging.Get().Debug().
		Str("component", "pipeline").
		Str("session_id", (*ctx).Classification.SessionID).
		Str("event", string(event.Type)).
		Msg("stage transition")
}
