package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bgricker/regdiff/internal/filter"
)

func TestCasesSortedAndPaired(t *testing.T) {
	base, mod := t.TempDir(), t.TempDir()
	for _, name := range []string{"b_case", "a_case", "c_case", "CMakeFiles", "only_base"} {
		mkdir(t, filepath.Join(base, name))
	}
	for _, name := range []string{"a_case", "b_case", "c_case", "only_mod"} {
		mkdir(t, filepath.Join(mod, name))
	}
	writeFile(t, filepath.Join(base, "README.txt"))
	// A file where the modified case directory should be.
	mkdir(t, filepath.Join(base, "d_case"))
	writeFile(t, filepath.Join(mod, "d_case"))

	res, err := Cases(base, mod, Options{Ignore: DefaultIgnore})
	if err != nil {
		t.Fatalf("Cases returned error: %v", err)
	}

	var ids []string
	for _, c := range res.Cases {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"a_case", "b_case", "c_case"}, ids); diff != "" {
		t.Fatalf("case order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d_case", "only_base"}, res.Unpaired); diff != "" {
		t.Fatalf("unpaired mismatch (-want +got):\n%s", diff)
	}
	if res.Cases[0].BaselineDir != filepath.Join(base, "a_case") || res.Cases[0].ModifiedDir != filepath.Join(mod, "a_case") {
		t.Fatalf("unexpected case paths: %+v", res.Cases[0])
	}
}

func TestCasesSelection(t *testing.T) {
	base, mod := t.TempDir(), t.TempDir()
	for _, name := range []string{"5ZoneAirCooled", "5ZoneVAV", "Furnace"} {
		mkdir(t, filepath.Join(base, name))
		mkdir(t, filepath.Join(mod, name))
	}
	sel, err := filter.NewSelection([]string{"5zone"}, []string{"/VAV$/"})
	if err != nil {
		t.Fatalf("selection: %v", err)
	}

	res, err := Cases(base, mod, Options{Selection: sel})
	if err != nil {
		t.Fatalf("Cases returned error: %v", err)
	}
	if len(res.Cases) != 1 || res.Cases[0].ID != "5ZoneAirCooled" {
		t.Fatalf("unexpected cases: %+v", res.Cases)
	}
	if diff := cmp.Diff([]string{"5ZoneVAV", "Furnace"}, res.Deselected); diff != "" {
		t.Fatalf("deselected mismatch (-want +got):\n%s", diff)
	}
}

func TestCasesErrors(t *testing.T) {
	root := t.TempDir()

	if _, err := Cases(filepath.Join(root, "missing"), root, Options{}); !errors.Is(err, ErrNoBaseline) {
		t.Fatalf("expected ErrNoBaseline, got %v", err)
	}

	file := filepath.Join(root, "file")
	writeFile(t, file)
	if _, err := Cases(file, root, Options{}); !errors.Is(err, ErrNoBaseline) {
		t.Fatalf("expected ErrNoBaseline for a file, got %v", err)
	}

	res, err := Cases(root, filepath.Join(root, "missing"), Options{})
	if err != nil {
		t.Fatalf("empty baseline should not error: %v", err)
	}
	if len(res.Cases) != 0 {
		t.Fatalf("expected no cases, got %+v", res.Cases)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
