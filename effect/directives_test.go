// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDirectives(t *testing.T) {
	src := `#define COUNT 4
#define NAME  hello world
#define MACRO(x) \
	((x) * 2)
#undef NAME
#ifdef COUNT
cbuffer CB { float4 v[COUNT]; float w[SIZE]; };
#endif
#pragma once
#frobnicate x
#
`
	doc := parseEffect(t, src)

	if doc.Source != src {
		t.Errorf("Source = %q, want input unchanged", doc.Source)
	}
	wantDefines := map[string]string{
		"COUNT": "4",
		"MACRO": "(x) \\\n\t((x) * 2)",
	}
	if !reflect.DeepEqual(doc.Defines, wantDefines) {
		t.Errorf("Defines = %q, want %q", doc.Defines, wantDefines)
	}

	cb := doc.ConstantBuffers["CB"]
	if cb == nil || len(cb.Members) != 2 {
		t.Fatalf("CB = %+v", cb)
	}
	if cb.Members[0].ArraySize != 4 || cb.Members[1].ArraySize != 1 {
		t.Errorf("array sizes = %d, %d, want 4, 1", cb.Members[0].ArraySize, cb.Members[1].ArraySize)
	}

	want := []DiagnosticKind{DiagUnknownValue, DiagUnknownDirective}
	if got := diagKinds(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("diagnostics = %v, want %v", got, want)
	}
}

func TestDirectiveInsideTechnique(t *testing.T) {
	src := `technique T
{
#define INNER 1
	pass P { }
}
`
	doc := parseEffect(t, src)
	if doc.Defines["INNER"] != "1" {
		t.Errorf("INNER = %q, want 1", doc.Defines["INNER"])
	}
	if doc.Source != "\n" {
		t.Errorf("Source = %q, want %q", doc.Source, "\n")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestIncludes(t *testing.T) {
	dir := t.TempDir()
	libDir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common.fxh"), "float4 Shared;\n")
	writeFile(t, filepath.Join(libDir, "lib.fxh"), "\xEF\xBB\xBFfloat Lib;\n")

	src := "#include \"common.fxh\"\n#include <lib.fxh>\n#include \"missing.fxh\"\nfloat4 main() : SV_Target { return Shared; }\n"
	path := filepath.Join(dir, "main.fx")
	writeFile(t, path, src)

	opts := DefaultOptions()
	opts.SearchDirs = []string{libDir}
	doc := NewDocument()
	if err := doc.ParseFile(path, opts); err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if doc.Name != path {
		t.Errorf("Name = %q, want %q", doc.Name, path)
	}
	if doc.Source != src {
		t.Errorf("Source = %q, want input unchanged", doc.Source)
	}
	if len(doc.Includes) != 3 {
		t.Fatalf("includes = %+v, want 3", doc.Includes)
	}

	common, lib, missing := doc.Includes[0], doc.Includes[1], doc.Includes[2]
	if common.Name != "common.fxh" || common.System || common.Path != filepath.Join(dir, "common.fxh") {
		t.Errorf("common = %+v", common)
	}
	if common.Offset != 0 || common.End != len(`#include "common.fxh"`) {
		t.Errorf("common span = %d..%d", common.Offset, common.End)
	}
	if lib.Name != "lib.fxh" || !lib.System || lib.Path != filepath.Join(libDir, "lib.fxh") || lib.Content != "float Lib;\n" {
		t.Errorf("lib = %+v", lib)
	}
	if missing.Path != "" || missing.Content != "" {
		t.Errorf("missing = %+v", missing)
	}
	if got := diagKinds(doc); !reflect.DeepEqual(got, []DiagnosticKind{DiagMissingInclude}) {
		t.Errorf("diagnostics = %v, want [MissingInclude]", got)
	}

	wantExpanded := "float4 Shared;\n\nfloat Lib;\n\n#include \"missing.fxh\"\nfloat4 main() : SV_Target { return Shared; }\n"
	if got := doc.Expand(); got != wantExpanded {
		t.Errorf("Expand() = %q, want %q", got, wantExpanded)
	}
}

func TestIncludesNotLoaded(t *testing.T) {
	opts := DefaultOptions()
	opts.LoadIncludes = false
	doc := NewDocument()
	src := "#include \"nowhere.fxh\"\n"
	if err := doc.ParseSource("main.fx", src, opts); err != nil {
		t.Fatal(err)
	}
	if len(doc.Includes) != 1 || doc.Includes[0].Path != "" {
		t.Errorf("includes = %+v", doc.Includes)
	}
	if len(doc.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", doc.Diagnostics)
	}
	if doc.Expand() != src {
		t.Errorf("Expand() = %q, want source unchanged", doc.Expand())
	}
}

func TestIncludeInsideExcisedBlock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "passes.fxh"), "// nothing\n")
	path := filepath.Join(dir, "main.fx")
	writeFile(t, path, "technique T\n{\n#include \"passes.fxh\"\n}\n")

	doc := NewDocument()
	if err := doc.ParseFile(path, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if len(doc.Includes) != 1 {
		t.Fatalf("includes = %+v, want 1", doc.Includes)
	}
	if inc := doc.Includes[0]; inc.Offset != -1 || inc.End != -1 || inc.Path == "" {
		t.Errorf("include = %+v, want a loaded include without an output span", inc)
	}
	if doc.Expand() != doc.Source {
		t.Errorf("Expand() = %q, want %q", doc.Expand(), doc.Source)
	}
}
