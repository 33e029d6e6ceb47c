package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/statekit"

	"github.com/tripwing/tripwing/domain/classify"
	"github.com/tripwing/tripwing/domain/fault"
	"github.com/tripwing/tripwing/infrastructure/logging"
	"github.com/tripwing/tripwing/infrastructure/planner"
	"github.com/tripwing/tripwing/infrastructure/recovery"
)

// Pipeline classifies task descriptions by driving the statechart through
// its stages. Provider faults route through the recovery handler; the
// pipeline itself never aborts, every run reaches the terminal stage.
type Pipeline struct {
	provider planner.Provider
	handler  *recovery.Handler
	machine  *statekit.MachineConfig[*Context]
}

// New creates a pipeline bound to one provider.
func New(provider planner.Provider, handler *recovery.Handler) (*Pipeline, error) {
	machine, err := NewClassifierMachine()
	if err != nil {
		return nil, fmt.Errorf("build classifier machine: %w", err)
	}
	return &Pipeline{
		provider: provider,
		handler:  handler,
		machine:  machine,
	}, nil
}

// Provider returns the provider this pipeline dispatches to.
func (p *Pipeline) Provider() planner.Provider {
	return p.provider
}

// Run classifies one task description. The returned bool reports whether a
// provider fault suggested switching to another backend; the classification
// is complete either way.
func (p *Pipeline) Run(ctx context.Context, input, sessionID string) (*classify.Classification, bool) {
	classification := &classify.Classification{
		Input:     input,
		SessionID: sessionID,
		Provider:  p.provider.Name(),
	}

	interp := statekit.NewInterpreter(p.machine)
	interp.UpdateContext(func(c **Context) {
		*c = &Context{Classification: classification}
	})
	interp.Start()

	switchProvider := false
	for !interp.Done() {
		stage := classify.Stage(interp.State().Value)
		if p.runStage(ctx, stage, classification) {
			switchProvider = true
		}
		interp.Send(statekit.Event{Type: eventAdvance})
	}

	logging.Get().Info().
		Str("component", "pipeline").
		Str("session_id", sessionID).
		Str("provider", classification.Provider).
		Str("work_type", classification.WorkType).
		Str("search_type", classification.SearchType).
		Int("errors", len(classification.Errors)).
		Msg("classification complete")
	return classification, switchProvider
}

// runStage executes one stage against the classification. It reports whether
// a provider switch was suggested.
func (p *Pipeline) runStage(ctx context.Context, stage classify.Stage, c *classify.Classification) bool {
	switch stage {
	case classify.StageInput:
		if strings.TrimSpace(c.Input) == "" {
			c.RecordError("empty input description provided")
		}
		return false
	case classify.StageWorkType, classify.StageCategory, classify.StageSearchType:
		return p.completeStage(ctx, stage, c)
	case classify.StageConfidence:
		c.ComputeOverallConfidence()
		return false
	default:
		return false
	}
}

// completeStage asks the provider for one stage's label, re-invoking while
// the recovery handler schedules retries.
func (p *Pipeline) completeStage(ctx context.Context, stage classify.Stage, c *classify.Classification) bool {
	prompt := promptFor(stage, c)
	component := "planner." + p.provider.Name()

	attempts := 0
	for {
		attempts++
		resp, err := p.provider.Complete(ctx, planner.CompletionRequest{
			Messages: []planner.Message{{Role: planner.RoleUser, Content: prompt}},
		})
		if err == nil {
			p.applyReply(stage, c, resp.Message.Content, attempts)
			return false
		}

		outcome := p.handler.Handle(ctx, err, component, stage.String(), map[string]any{
			"session_id": c.SessionID,
		})
		if outcome.Retry {
			continue
		}

		c.RecordError(fmt.Sprintf("%s stage error: %s", stage, err))
		applyDefault(stage, c, 0.0)
		return outcome.Recovery == fault.RecoverySwitchProvider
	}
}

// applyReply parses a provider response into the stage's slot. Unparseable
// responses fall back to the stage default with low confidence.
func (p *Pipeline) applyReply(stage classify.Stage, c *classify.Classification, raw string, attempts int) {
	reply, err := parseStageReply(raw)
	if err != nil {
		c.RecordError(fmt.Sprintf("failed to parse %s classification response", stage))
		applyDefault(stage, c, 0.1)
		c.Responses = append(c.Responses, classify.StageResponse{
			Stage:    stage,
			Raw:      raw,
			Label:    defaultLabel(stage),
			Attempts: attempts,
		})
		return
	}

	label := labelFor(stage, reply)
	if label == "" {
		label = defaultLabel(stage)
	}
	setStage(stage, c, label, reply.Confidence)
	c.Responses = append(c.Responses, classify.StageResponse{
		Stage:    stage,
		Raw:      raw,
		Label:    label,
		Reason:   reply.Reasoning,
		Attempts: attempts,
	})
}

func promptFor(stage classify.Stage, c *classify.Classification) string {
	switch stage {
	case classify.StageWorkType:
		return workTypePrompt(c)
	case classify.StageCategory:
		return categoryPrompt(c)
	default:
		return searchTypePrompt(c)
	}
}

func labelFor(stage classify.Stage, reply stageReply) string {
	switch stage {
	case classify.StageWorkType:
		return reply.WorkType
	case classify.StageCategory:
		return reply.Category
	default:
		return reply.SearchType
	}
}

func defaultLabel(stage classify.Stage) string {
	switch stage {
	case classify.StageWorkType:
		return classify.WorkTypeOther
	case classify.StageCategory:
		return classify.CategoryGeneral
	default:
		return classify.SearchTypeLLMOnly
	}
}

func applyDefault(stage classify.Stage, c *classify.Classification, confidence float64) {
	setStage(stage, c, defaultLabel(stage), confidence)
}

func setStage(stage classify.Stage, c *classify.Classification, label string, confidence float64) {
	switch stage {
	case classify.StageWorkType:
		c.WorkType = label
		c.WorkTypeConfidence = confidence
	case classify.StageCategory:
		c.Category = label
		c.CategoryConfidence = confidence
	default:
		c.SearchType = label
		c.SearchTypeConfidence = confidence
	}
}
