package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Step is one scripted answer: a text, an error, or a delay before the text.
type Step struct {
	Text  string
	Err   error
	Delay time.Duration
}

// Reply scripts a successful answer.
func Reply(text string) Step { return Step{Text: text} }

// Fail scripts an error.
func Fail(err error) Step { return Step{Err: err} }

// Slow scripts an answer that arrives after d unless the context ends first.
func Slow(d time.Duration, text string) Step { return Step{Text: text, Delay: d} }

// Call records one invocation.
type Call struct {
	System          string
	User            string
	MaxOutputTokens int
}

// ScriptedOracle replays steps in order. Useful in tests and for offline demos.
// When the script is exhausted it fails with ErrUnavailable.
type ScriptedOracle struct {
	mu    sync.Mutex
	steps []Step
	calls []Call
}

// NewScripted creates a ScriptedOracle with the given steps.
func NewScripted(steps ...Step) *ScriptedOracle {
	return &ScriptedOracle{steps: steps}
}

// Push appends steps to the script.
func (s *ScriptedOracle) Push(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, steps...)
}

// Invoke returns the next scripted step.
func (s *ScriptedOracle) Invoke(ctx context.Context, system, user string, maxOutputTokens int) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{System: system, User: user, MaxOutputTokens: maxOutputTokens})
	if len(s.steps) == 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: script exhausted", ErrUnavailable)
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	s.mu.Unlock()

	if step.Delay > 0 {
		timer := time.NewTimer(step.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", classify(ctx.Err())
		case <-timer.C:
		}
	}
	if step.Err != nil {
		return "", step.Err
	}
	return step.Text, nil
}

// Name returns "scripted".
func (s *ScriptedOracle) Name() string { return "scripted" }

// Calls returns a copy of the recorded invocations.
func (s *ScriptedOracle) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of invocations so far.
func (s *ScriptedOracle) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
