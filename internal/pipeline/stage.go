package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/oracle"
	"github.com/hyperjump/triage/internal/prompt"
	"github.com/hyperjump/triage/internal/validate"
)

// Default output budgets.
const (
	DefaultStage1MaxOutputTokens = 1500
	DefaultStage2MaxOutputTokens = 3000
)

// Stage is one oracle configuration.
type Stage struct {
	Oracle          oracle.Oracle
	MaxOutputTokens int
}

// stageRun is the outcome of one stage.
type stageRun struct {
	result *validate.Result
	calls  int
	err    error
}

// runStage invokes the oracle and validates its answer, retrying once (or up to
// MaxAttempts) on oracle errors and on validation errors.
func (p *Pipeline) runStage(ctx context.Context, name string, st Stage, system, text string, in validate.Input) stageRun {
	var run stageRun
	user := prompt.UserPayload(text)
	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			run.err = err
			return run
		}
		run.calls++
		raw, err := st.Oracle.Invoke(ctx, system, user, st.MaxOutputTokens)
		if err != nil {
			run.err = err
			p.logger.Warn("Oracle call failed",
				zap.String("stage", name),
				zap.String("oracle", st.Oracle.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if !retryable(err) {
				return run
			}
			continue
		}
		res, err := p.validator.Validate(raw, in)
		if err != nil {
			run.err = err
			p.logger.Warn("Oracle output rejected",
				zap.String("stage", name),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		run.result = res
		run.err = nil
		return run
	}
	return run
}

func retryable(err error) bool {
	return errors.Is(err, oracle.ErrTimeout) || errors.Is(err, oracle.ErrUnavailable)
}
