package revision

import (
	"context"
	"os/exec"
	"regexp"
	"testing"
)

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{"-c", "user.name=regdiff", "-c", "user.email=regdiff@example.com", "-c", "commit.gpgsign=false"}
	cmd := exec.Command("git", append(base, args...)...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestDetectBranchAndSHA(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	git(t, dir, "init", "-q")
	git(t, dir, "checkout", "-q", "-b", "fix-fan-power")
	git(t, dir, "commit", "-q", "--allow-empty", "-m", "init")

	info, err := Detect(context.Background(), dir)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if info.Branch != "fix-fan-power" {
		t.Fatalf("branch = %q", info.Branch)
	}
	if !regexp.MustCompile(`^[0-9a-f]{7,}$`).MatchString(info.SHA) {
		t.Fatalf("sha = %q", info.SHA)
	}
}

func TestDetectDetachedHead(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	git(t, dir, "init", "-q")
	git(t, dir, "commit", "-q", "--allow-empty", "-m", "init")
	git(t, dir, "checkout", "-q", "--detach")

	info, err := Detect(context.Background(), dir)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if info.Branch != FallbackBranch || info.SHA == FallbackSHA {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestResolveKeepsConfiguredValues(t *testing.T) {
	want := Info{Branch: "feature", SHA: "abc123de"}
	got, err := Resolve(context.Background(), t.TempDir(), want)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestResolveFallsBackOutsideRepository(t *testing.T) {
	got, err := Resolve(context.Background(), t.TempDir(), Info{Branch: "feature"})
	if err == nil {
		t.Skip("temporary directory is inside a git work tree")
	}
	if got.Branch != "feature" || got.SHA != FallbackSHA {
		t.Fatalf("unexpected info %+v", got)
	}
}

func TestDetectWithoutGit(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	dir := t.TempDir()

	info, err := Detect(context.Background(), dir)
	if !Missing(err) {
		t.Fatalf("expected missing git, got %v", err)
	}
	if info != (Info{Branch: FallbackBranch, SHA: FallbackSHA}) {
		t.Fatalf("unexpected info %+v", info)
	}

	resolved, err := Resolve(context.Background(), dir, Info{Branch: "feature"})
	if !Missing(err) {
		t.Fatalf("expected missing git from resolve, got %v", err)
	}
	if resolved != (Info{Branch: "feature", SHA: FallbackSHA}) {
		t.Fatalf("unexpected resolved info %+v", resolved)
	}
}
