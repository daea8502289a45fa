// Package updater runs the self-update pipeline: fetch, rebuild and restart.
package updater

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxStreamRunes bounds each captured stream so that a failure report fits in one chat message.
const MaxStreamRunes = 1800

// Step is one external command of the pipeline.
type Step struct {
	Name        string
	Description string
	Command     string
	Args        []string
	// ReplacesProcess marks a step that stops the running bot, such as restarting its
	// service unit. It is launched without waiting for completion and being killed by a
	// signal counts as success.
	ReplacesProcess bool
}

// String renders the command line of the step.
func (s Step) String() string {
	return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
}

// Result is the captured outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Signaled is set when the process was terminated by a signal.
	Signaled bool
}

// StepError describes a failed step. Err is set when the process could not be launched
// or was interrupted; otherwise ExitCode is the non-zero exit status.
type StepError struct {
	Step     Step
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %s (%s) failed to run: %v", e.Step.Name, e.Step, e.Err)
	}
	return fmt.Sprintf("step %s (%s) exited with status %d", e.Step.Name, e.Step, e.ExitCode)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// TrimTail keeps the last limit runes of s, marking the cut with an ellipsis.
func TrimTail(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return "…" + string(runes[len(runes)-limit+1:])
}

// Options configure the default step sequence.
type Options struct {
	BuildScript string
	ServiceUnit string
}

// DefaultSteps returns git pull, the build script and systemctl restart of the unit.
func DefaultSteps(opts Options) []Step {
	build := opts.BuildScript
	if build == "" {
		build = "./build.sh"
	}
	unit := opts.ServiceUnit
	if unit == "" {
		unit = "joke-bot"
	}

	return []Step{
		{Name: "fetch", Description: "git pull", Command: "git", Args: []string{"pull"}},
		{Name: "build", Description: "build", Command: build},
		{Name: "restart", Description: "restart", Command: "systemctl", Args: []string{"restart", unit}, ReplacesProcess: true},
	}
}
