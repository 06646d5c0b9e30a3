package diffs

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-based diff tool stubs need a POSIX shell")
	}
}

func TestExecDifferDecodesStdout(t *testing.T) {
	skipOnWindows(t)
	script := `printf '{"text": {"EIO": "not_equal"}, "artifacts": ["%s.eio.diff"]}' "$1"`
	d, err := NewExecDiffer(ExecOptions{Command: []string{"sh", "-c", script, "sh", PlaceholderCase}})
	if err != nil {
		t.Fatalf("new differ: %v", err)
	}

	v, err := d.DiffCase(context.Background(), Request{CaseID: "5ZoneAirCooled"})
	if err != nil {
		t.Fatalf("diff case: %v", err)
	}
	if v.EIO == nil || *v.EIO != TextNotEqual {
		t.Fatalf("expected EIO not equal, got %v", v.EIO)
	}
	if len(v.Artifacts) != 1 || v.Artifacts[0] != "5ZoneAirCooled.eio.diff" {
		t.Fatalf("placeholder not expanded: %v", v.Artifacts)
	}
}

func TestExecDifferReportsStderrTail(t *testing.T) {
	skipOnWindows(t)
	script := `echo "line one" >&2; echo "threshold file unreadable" >&2; exit 3`
	d, err := NewExecDiffer(ExecOptions{Command: []string{"sh", "-c", script}, TailLines: 1})
	if err != nil {
		t.Fatalf("new differ: %v", err)
	}

	_, err = d.DiffCase(context.Background(), Request{CaseID: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "status 3") || !strings.Contains(msg, "threshold file unreadable") {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(msg, "line one") {
		t.Fatalf("expected only the stderr tail, got %v", err)
	}
}

func TestExecDifferTimeout(t *testing.T) {
	skipOnWindows(t)
	d, err := NewExecDiffer(ExecOptions{Command: []string{"sh", "-c", "exec sleep 5"}, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new differ: %v", err)
	}
	_, err = d.DiffCase(context.Background(), Request{CaseID: "slow"})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestExecDifferMalformedOutput(t *testing.T) {
	skipOnWindows(t)
	d, err := NewExecDiffer(ExecOptions{Command: []string{"sh", "-c", "echo not-json"}})
	if err != nil {
		t.Fatalf("new differ: %v", err)
	}
	if _, err := d.DiffCase(context.Background(), Request{}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewExecDifferRequiresCommand(t *testing.T) {
	if _, err := NewExecDiffer(ExecOptions{}); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}

func TestExpandArgs(t *testing.T) {
	got := expandArgs(
		[]string{"tool", "--base={baseline}", "{modified}", "-t", "{thresholds}"},
		Request{BaselineDir: "/b/c", ModifiedDir: "/m/c", Thresholds: "t.cfg"},
	)
	want := []string{"tool", "--base=/b/c", "/m/c", "-t", "t.cfg"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: want %q, got %q", i, want[i], got[i])
		}
	}
}
