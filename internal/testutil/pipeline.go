package testutil

import (
	"context"
	"sync"

	"github.com/Proton-105/joke-bot/internal/updater"
)

// FakePipeline records runs and replays a scripted failure.
type FakePipeline struct {
	mu   sync.Mutex
	runs int

	Steps []updater.Step
	// Fail names the step that fails; empty means all steps succeed.
	Fail    string
	FailErr *updater.StepError
}

// Run reports every step up to the failing one.
func (p *FakePipeline) Run(ctx context.Context, rep updater.Reporter) error {
	p.mu.Lock()
	p.runs++
	p.mu.Unlock()

	for _, step := range p.Steps {
		rep.StepStarted(ctx, step)
		if step.Name == p.Fail {
			stepErr := p.FailErr
			if stepErr == nil {
				stepErr = &updater.StepError{Step: step, ExitCode: 1}
			}
			rep.StepFailed(ctx, stepErr)
			return stepErr
		}
	}

	return nil
}

// Runs reports how many times Run was called.
func (p *FakePipeline) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}
