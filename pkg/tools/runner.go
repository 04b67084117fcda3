package tools

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"

	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/logging"
	"github.com/rs/zerolog"
)

// Result holds the outcome of an external command
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is set when the command could not be started or did not exit
	// cleanly; ExitCode is -1 when it never ran
	Err error
}

// OK reports whether the command ran and exited with status 0
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner runs external commands
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs commands as child processes and captures their output
type ExecRunner struct {
	logger zerolog.Logger
}

// NewExecRunner creates a runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{logger: logging.GetLogger("tools.runner")}
}

// Run executes name with args and waits for it to exit
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	logging.LogToolRun(r.logger, name, args)

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			res.Err = errors.Wrapf(err, errors.ErrToolFailed, "%s terminated abnormally", name)
		}
		return res
	}

	res.ExitCode = -1
	res.Err = errors.Wrapf(err, errors.ErrToolNotFound, "failed to run %s", name)
	r.logger.Debug().Err(err).Str("command", name).Msg("Command could not be started")
	return res
}
