package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const simpleEffect = `RasterizerState Wire { FillMode = Wireframe; CullMode = Sideways; };

float4 PSMain() : SV_Target { return 1; }

technique T
{
	pass P
	{
		PixelShader = compile ps_6_0 PSMain();
		RasterizerState = Wire;
	}
}
`

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunArguments(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"version", []string{"-version"}, 0, "fxc version", ""},
		{"no input", []string{"-o", "out"}, 1, "", "no input file specified"},
		{"no output", []string{"in.fx"}, 1, "", "no output directory"},
		{"bad format", []string{"in.fx", "-o", "out", "-format", "yaml"}, 1, "", `unknown format "yaml"`},
		{"unknown flag", []string{"-frobnicate"}, 1, "", "flag provided but not defined"},
		{"help", []string{"-h"}, 0, "", "Usage: fxc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stdout, tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout, tt.wantStdout)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestParseArgsInterleaved(t *testing.T) {
	var cfg config
	fs := newFlagSet(&cfg, &bytes.Buffer{})
	inputs, err := parseArgs(fs, []string{"a.fx", "-o", "out", "b.fx", "-c", "-I", "inc", "-I", "lib"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(inputs, " ") != "a.fx b.fx" {
		t.Errorf("inputs = %q, want [a.fx b.fx]", inputs)
	}
	if cfg.outDir != "out" || !cfg.compile || cfg.includes.String() != "inc,lib" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestParseDefines(t *testing.T) {
	got := parseDefines([]string{"A=1", "B", "C=x=y"})
	if len(got) != 3 || got["A"] != "1" || got["B"] != "" || got["C"] != "x=y" {
		t.Errorf("parseDefines() = %v", got)
	}
	if parseDefines(nil) != nil {
		t.Error("parseDefines(nil) should be nil")
	}
}

func TestRunSingleInput(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "simple.fx", simpleEffect)
	out := filepath.Join(dir, "out")

	code, stdout, stderr := runCLI(t, input, "-o", out, "-webgpu", "-v")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}

	for _, name := range []string{"input_source.fx", "variation.xml"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if !strings.Contains(stderr, "warning: "+input+":1:") || !strings.Contains(stderr, "Sideways") {
		t.Errorf("stderr = %q, want the unknown value warning", stderr)
	}
	if !strings.Contains(stderr, "webgpu: rasterizer_state Wire: wireframe fill is not supported") {
		t.Errorf("stderr = %q, want the wireframe issue", stderr)
	}
	if !strings.Contains(stdout, input+" -> ") {
		t.Errorf("stdout = %q, want a progress line", stdout)
	}
}

func TestRunMultipleInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.fx", simpleEffect)
	b := writeInput(t, dir, "b.fx", "float4 g;\n")
	out := filepath.Join(dir, "out")

	code, _, stderr := runCLI(t, "-format", "json", "-j", "2", a, b, "-o", out)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	for _, sub := range []string{"a", "b"} {
		if _, err := os.Stat(filepath.Join(out, sub, "variation.json")); err != nil {
			t.Errorf("%s/variation.json not written: %v", sub, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(out, "b", "input_source.fx"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "float4 g;\n" {
		t.Errorf("b source = %q", data)
	}
}

func TestRunDuplicateBaseNames(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	a := writeInput(t, dir, filepath.Join("a", "x.fx"), simpleEffect)
	b := writeInput(t, dir, filepath.Join("b", "x.fx"), "float4 g;\n")
	out := filepath.Join(dir, "out")

	code, _, stderr := runCLI(t, a, b, "-o", out)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if want := a + " and " + b + " both write to " + filepath.Join(out, "x"); !strings.Contains(stderr, want) {
		t.Errorf("stderr = %q, want it to contain %q", stderr, want)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output written despite the collision")
	}
}

func TestRunParseError(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "bad.fx", "technique T\n{\n\tpass P { VertexShader = 5; }\n}\n")

	code, _, stderr := runCLI(t, input, "-o", filepath.Join(dir, "out"))
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	for _, want := range []string{
		`error: expected shader, found "5"`,
		"  --> " + input + ":3:26",
		"  3| \tpass P { VertexShader = 5; }",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr = %q, want it to contain %q", stderr, want)
		}
	}
}

func TestRunCompileFailure(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "simple.fx", simpleEffect)
	missing := filepath.Join(dir, "no-such-compiler")

	code, _, stderr := runCLI(t, input, "-o", filepath.Join(dir, "out"), "-c", "-compiler", missing)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, `error: `+input+`: technique "T" pass "P": pixel shader PSMain (ps_6_0)`) {
		t.Errorf("stderr = %q, want the failing stage", stderr)
	}
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t, filepath.Join(dir, "none.fx"), "-o", dir)
	if code != 1 || !strings.Contains(stderr, "error: ") {
		t.Errorf("exit code = %d, stderr = %q", code, stderr)
	}
}
