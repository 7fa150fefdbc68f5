package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.fx")
	writeFile(t, path, "float4 x;")

	f, err := New().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.String() != "float4 x;" {
		t.Errorf("content = %q", f.String())
	}
	if f.Size != len("float4 x;") {
		t.Errorf("Size = %d, want %d", f.Size, len("float4 x;"))
	}
	if f.Path != path {
		t.Errorf("Path = %q, want %q", f.Path, path)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	f, err := Read("mem.fx", strings.NewReader("\xEF\xBB\xBFcbuffer"))
	if err != nil {
		t.Fatal(err)
	}
	if f.String() != "cbuffer" {
		t.Errorf("content = %q, want cbuffer", f.String())
	}
	if f.Size != 7 {
		t.Errorf("Size = %d, want 7", f.Size)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := New().Load(filepath.Join(t.TempDir(), "missing.fx"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v does not wrap os.ErrNotExist", err)
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	local := filepath.Join(root, "src")
	inc1 := filepath.Join(root, "inc1")
	inc2 := filepath.Join(root, "inc2")
	writeFile(t, filepath.Join(local, "common.h"), "")
	writeFile(t, filepath.Join(inc1, "common.h"), "")
	writeFile(t, filepath.Join(inc1, "lights.h"), "")
	writeFile(t, filepath.Join(inc2, "lights.h"), "")
	writeFile(t, filepath.Join(inc2, "sub", "shadow.h"), "")

	l := New(inc1, inc2)
	tests := []struct {
		name       string
		relativeTo string
		want       string
	}{
		{"common.h", local, filepath.Join(local, "common.h")},
		{"lights.h", local, filepath.Join(inc1, "lights.h")},
		{"sub/shadow.h", local, filepath.Join(inc2, "sub", "shadow.h")},
		{"common.h", "", filepath.Join(inc1, "common.h")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Resolve(tt.name, tt.relativeTo)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := l.Resolve("nope.h", local); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(nope.h) error = %v, want ErrNotFound", err)
	}
	if _, err := l.Resolve("sub", inc2); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(directory) error = %v, want ErrNotFound", err)
	}
}
