package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// ErrCommandTimeout is returned by a CommandRunner when the command did not
// finish before its timeout elapsed.
var ErrCommandTimeout = errors.New("command timed out")

// CommandResult holds the captured output of an external command.
// Stdout and Stderr are returned untrimmed.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner runs an external program with an argument vector. No shell is
// involved, so arguments are never interpolated.
//
// A non-zero exit is reported through CommandResult.ExitCode, not as an error.
// Errors are reserved for failures to run the command at all: a missing binary
// (wrapping exec.ErrNotFound) or ErrCommandTimeout.
type CommandRunner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (CommandResult, error)
}

// ExecRunner is the CommandRunner backed by os/exec.
type ExecRunner struct{}

// Run executes name with args, capturing stdout and stderr as text.
func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (CommandResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()

	result := CommandResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("'%s %s': %w after %s", name, strings.Join(args, " "), ErrCommandTimeout, timeout)
	}
	if runErr == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	// exec.ErrNotFound and friends stay wrapped so callers can errors.Is them.
	return result, fmt.Errorf("failed to execute '%s': %w", name, runErr)
}

// OpenBrowser asks the desktop environment to open target. It only starts the
// opener and does not wait for it.
func OpenBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32.exe", "url.dll,FileProtocolHandler", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
