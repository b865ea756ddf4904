package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lead-agent/internal/domain"
)

const (
	inlineFallbackName = "inline-fallback"
	internalErrMsg     = "Sorry, I hit an internal error. Please try again."
	rephraseMsg        = "I'm not sure I can help with that - could you try rephrasing?"
)

// Dispatcher routes one turn through zero or more skills and returns exactly
// one Result. Multiple Dispatcher instances can hold independent registries;
// there is no shared global state.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// New creates a Dispatcher over the given registry.
func New(registry *Registry, logger *slog.Logger) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("dispatch: registry must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}, nil
}

// Dispatch selects the first eligible skill by registry order, invokes it
// under its timeout, and keeps chaining while the selected skill is a
// utility that produced no visible output.
//
// The loop is bounded: every chained skill lands in the executed set and is
// never selected twice within one dispatch, and each invocation is bounded
// by the skill's timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, turn domain.Turn, convo *domain.Conversation) domain.Result {
	d.logger.Info("dispatching turn", "turn_id", turn.ID, "text", turn.Text)

	executed := map[string]struct{}{}
	for {
		skill := d.selectSkill(turn, convo, executed)
		d.logger.Info("routed to skill", "skill", skill.Name, "kind", skill.Kind)

		result := d.invoke(ctx, skill, turn, convo)

		if result.Finished || strings.TrimSpace(result.Text) != "" || skill.Kind != domain.KindUtility {
			return result
		}

		// Silent utility skill: remember it ran and pick the next candidate.
		executed[skill.Name] = struct{}{}
		d.logger.Info("skill produced no user text, continuing chain", "skill", skill.Name)
	}
}

// invoke runs the skill's handle under its timeout. On timeout the in-flight
// invocation is abandoned, not interrupted: the goroutine keeps running but
// nobody waits for it.
func (d *Dispatcher) invoke(ctx context.Context, skill domain.Skill, turn domain.Turn, convo *domain.Conversation) domain.Result {
	type outcome struct {
		result domain.Result
		err    error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				d.logger.Error("skill panicked", "skill", skill.Name, "panic", rec)
				done <- outcome{err: fmt.Errorf("dispatch: skill %s panicked: %v", skill.Name, rec)}
			}
		}()
		res, err := skill.Handle(ctx, turn, convo)
		done <- outcome{result: res, err: err}
	}()

	timer := time.NewTimer(skill.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			d.logger.Error("skill failed", "skill", skill.Name, "err", out.err)
			return domain.ErrorResult(turn.ID, internalErrMsg)
		}
		out.result.Latency = time.Since(start)
		return out.result
	case <-timer.C:
		d.logger.Error("skill timed out", "skill", skill.Name, "timeout", skill.Timeout)
		return domain.ErrorResult(turn.ID, fmt.Sprintf("%s timed-out - please try again.", skill.Name))
	}
}

// selectSkill returns the first skill in registry order whose match claims
// the turn and which has not already executed during this dispatch. A
// faulting predicate counts as a non-match.
func (d *Dispatcher) selectSkill(turn domain.Turn, convo *domain.Conversation, skip map[string]struct{}) domain.Skill {
	for _, skill := range d.registry.Skills() {
		if _, done := skip[skill.Name]; done {
			continue
		}
		if d.safeMatch(skill, turn, convo) {
			return skill
		}
	}
	if fb, ok := d.registry.Fallback(); ok {
		if _, done := skip[fb.Name]; !done {
			return fb
		}
	}
	return inlineFallback()
}

func (d *Dispatcher) safeMatch(skill domain.Skill, turn domain.Turn, convo *domain.Conversation) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("match predicate panicked", "skill", skill.Name, "panic", rec)
			matched = false
		}
	}()
	return skill.Match(turn, convo)
}

// inlineFallback is the built-in catch-all used when no fallback skill is
// registered.
func inlineFallback() domain.Skill {
	return domain.Skill{
		Name:     inlineFallbackName,
		Kind:     domain.KindFallback,
		Priority: 99999,
		Timeout:  defaultTimeout,
		Match: func(domain.Turn, *domain.Conversation) bool {
			return true
		},
		Handle: func(_ context.Context, turn domain.Turn, _ *domain.Conversation) (domain.Result, error) {
			return domain.Result{
				TurnID:      turn.ID,
				Text:        rephraseMsg,
				RoutedSkill: inlineFallbackName,
				Finished:    false,
			}, nil
		},
	}
}
