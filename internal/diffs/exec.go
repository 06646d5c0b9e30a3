package diffs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrNoCommand indicates that no diff command was configured.
var ErrNoCommand = errors.New("no diff command configured")

// Placeholders substituted into each diff command argument.
const (
	PlaceholderCase       = "{case}"
	PlaceholderBaseline   = "{baseline}"
	PlaceholderModified   = "{modified}"
	PlaceholderThresholds = "{thresholds}"
)

// ExecOptions configure how the external diff tool is invoked.
type ExecOptions struct {
	Command   []string
	Dir       string
	Env       []string
	Timeout   time.Duration
	TailLines int
}

// ExecDiffer runs the external diff tool as a subprocess per case and decodes
// the verdict document it prints on stdout.
type ExecDiffer struct {
	opts ExecOptions
}

// NewExecDiffer validates opts and fills defaults.
func NewExecDiffer(opts ExecOptions) (*ExecDiffer, error) {
	if len(opts.Command) == 0 || strings.TrimSpace(opts.Command[0]) == "" {
		return nil, ErrNoCommand
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	opts.Command = append([]string{}, opts.Command...)
	return &ExecDiffer{opts: opts}, nil
}

// DiffCase implements Differ.
func (d *ExecDiffer) DiffCase(ctx context.Context, req Request) (*Verdicts, error) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	args := expandArgs(d.opts.Command, req)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = d.opts.Dir
	cmd.Env = d.opts.Env
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return nil, fmt.Errorf("diff tool timed out after %s", d.opts.Timeout)
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("diff tool %q not found: %w", args[0], err)
		}
		msg := tailLines(stderr.String(), d.opts.TailLines)
		if msg == "" {
			return nil, fmt.Errorf("diff tool exited with status %d: %w", exitCode(err), err)
		}
		return nil, fmt.Errorf("diff tool exited with status %d: %s", exitCode(err), msg)
	}

	v, err := Decode(&stdout)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func expandArgs(command []string, req Request) []string {
	r := strings.NewReplacer(
		PlaceholderCase, req.CaseID,
		PlaceholderBaseline, req.BaselineDir,
		PlaceholderModified, req.ModifiedDir,
		PlaceholderThresholds, req.Thresholds,
	)
	out := make([]string, len(command))
	for i, arg := range command {
		out[i] = r.Replace(arg)
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func tailLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" || n <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
