// Package runner executes action commands.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ExitError is returned when the command ran but exited with a non-zero
// status.
type ExitError struct {
	Argv []string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", strings.Join(e.Argv, " "), e.Code)
}

// Exec runs commands directly, without a shell. Stdout and stderr of the
// command are inherited from this process.
type Exec struct {
	// Env is appended to the environment of this process.
	Env []string
}

// Run starts argv and waits for it to exit. Cancelling ctx kills the
// command.
func (r *Exec) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return pkgerrors.New("empty command")
	}

	logger := logrus.WithField("command", argv)
	logger.Debug("running command")

	//nolint:gosec // argv comes from the user config
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	err := cmd.Run()
	if err == nil {
		logger.Debug("command finished")
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return pkgerrors.Wrapf(ctxErr, "command %q was stopped", strings.Join(argv, " "))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Argv: argv, Code: exitErr.ExitCode()}
	}

	return pkgerrors.Wrapf(err, "failed to execute %q", strings.Join(argv, " "))
}
