package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/JonMunkholm/masterconsole/internal/core"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEntitiesCmd(t *testing.T) {
	out, err := execute(t, "entities")
	if err != nil {
		t.Fatalf("entities error = %v", err)
	}
	for _, want := range []string{"KEY", "users", "makers", "products", "style-row"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestImportCmd_Args(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"import"}},
		{"missing file", []string{"import", "makers"}},
		{"too many", []string{"import", "makers", "a.csv", "b.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("Execute() error = nil, want argument error")
			}
		})
	}
}

func TestImportCmd_MemoryBackends(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("IDENTITY_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	path := t.TempDir() + "/makers.csv"
	if err := writeFile(path, "名称コード,名称\nM1,東洋\nM2,北村\n"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "import", "makers", path, "--quiet")
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if got, want := strings.TrimSpace(out), "メーカーインポート完了: 2件"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestImportCmd_DryRun(t *testing.T) {
	// An unopenable store proves the dry run never touches the backends.
	t.Setenv("STORE_DRIVER", "unavailable")
	t.Setenv("LOG_LEVEL", "error")

	path := t.TempDir() + "/makers.csv"
	if err := writeFile(path, "名称コード,名称\nM1,東洋\n,空行\nM2,北村\nM3,南\n"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "import", "makers", path, "--dry-run", "--limit", "2")
	if err != nil {
		t.Fatalf("import --dry-run error = %v", err)
	}
	for _, want := range []string{`"key":"M1"`, `"key":"M2"`, "北村", "dry run: 2 shown, 1 skipped, nothing written to makers"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `"key":"M3"`) {
		t.Errorf("output exceeds --limit:\n%s", out)
	}
}

func TestLookupSchema_UnknownListsKeys(t *testing.T) {
	_, err := execute(t, "import", "widgets", "x.csv")
	if !errors.Is(err, core.ErrUnknownEntity) {
		t.Fatalf("error = %v, want ErrUnknownEntity", err)
	}
	for _, want := range []string{"widgets", "makers", "users"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func writeFile(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o600)
}
