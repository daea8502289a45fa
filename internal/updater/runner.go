package updater

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

const (
	// waitDelay bounds how long output pipes are drained after the process is killed.
	waitDelay = 2 * time.Second
	// defaultLaunchGrace is how long a process-replacing step is watched for an early failure.
	defaultLaunchGrace = 3 * time.Second
)

// Runner executes a single step and captures its output.
type Runner interface {
	// Run returns the captured result. The error is non-nil only when the process could not
	// be started or did not exit on its own; a non-zero exit status is reported in Result.
	Run(ctx context.Context, step Step) (Result, error)
}

// ExecRunner runs steps as local processes.
type ExecRunner struct {
	Dir     string
	Timeout time.Duration
	// LaunchGrace bounds the wait for a process-replacing step; zero means three seconds.
	LaunchGrace time.Duration
}

// Run starts the step command in r.Dir and waits for it to finish. Steps that replace the
// process are only watched for LaunchGrace and keep running afterwards.
func (r ExecRunner) Run(ctx context.Context, step Step) (Result, error) {
	if step.ReplacesProcess {
		return r.launch(ctx, step)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer

	// #nosec G204: step commands come from deployment configuration
	cmd := exec.CommandContext(ctx, step.Command, step.Args...)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		res.ExitCode = -1
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	res.ExitCode = -1
	return res, err
}

// launch starts a step that is going to stop this process. The command is not bound to ctx
// and runs in its own process group, so it outlives the bot. An exit within the grace
// period is reported as usual; a command still running after it is assumed to be waiting
// for the service manager to stop the bot.
func (r ExecRunner) launch(ctx context.Context, step Step) (Result, error) {
	var stdout, stderr bytes.Buffer

	// #nosec G204: step commands come from deployment configuration
	cmd := exec.Command(step.Command, step.Args...)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	grace := r.LaunchGrace
	if grace <= 0 {
		grace = defaultLaunchGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-done:
		res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			return res, nil
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
			res.Signaled = !exitErr.Exited()
			return res, nil
		default:
			res.ExitCode = -1
			return res, err
		}
	case <-timer.C:
		return Result{}, nil
	case <-ctx.Done():
		return Result{ExitCode: -1}, ctx.Err()
	}
}
