package updater

import (
	"context"
	"log/slog"

	"github.com/Proton-105/joke-bot/pkg/metrics"
)

// Reporter receives pipeline progress.
type Reporter interface {
	StepStarted(ctx context.Context, step Step)
	StepFailed(ctx context.Context, err *StepError)
}

// Pipeline runs its steps strictly in order and stops at the first failure.
type Pipeline struct {
	steps  []Step
	runner Runner
	log    *slog.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(steps []Step, runner Runner, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{steps: steps, runner: runner, log: log}
}

// Run executes every step. It returns nil when all steps exited with status 0, or the
// *StepError of the first failing step; later steps are not started.
func (p *Pipeline) Run(ctx context.Context, rep Reporter) error {
	for _, step := range p.steps {
		log := p.log.With(slog.String("step", step.Name), slog.String("command", step.String()))

		if rep != nil {
			rep.StepStarted(ctx, step)
		}
		log.Info("update step started")

		res, err := p.runner.Run(ctx, step)
		if err == nil && succeeded(step, res) {
			metrics.RecordUpdateStep(step.Name, "ok")
			log.Info("update step finished")
			continue
		}

		stepErr := &StepError{
			Step:     step,
			ExitCode: res.ExitCode,
			Stdout:   TrimTail(res.Stdout, MaxStreamRunes),
			Stderr:   TrimTail(res.Stderr, MaxStreamRunes),
			Err:      err,
		}

		metrics.RecordUpdateStep(step.Name, "failed")
		log.Error("update step failed", slog.Int("exit_code", res.ExitCode), slog.Any("error", err))

		if rep != nil {
			rep.StepFailed(ctx, stepErr)
		}
		return stepErr
	}

	return nil
}

// succeeded reports whether a step that ran to completion counts as passed. A step that
// replaces the process is expected to be killed together with it.
func succeeded(step Step, res Result) bool {
	return res.ExitCode == 0 || (step.ReplacesProcess && res.Signaled)
}
