// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gogpu/fxc/effect"
)

const twoPasses = `
float4 VSMain() : SV_Position { return 0; }
float4 PSMain(float4 tint) : SV_Target { return tint; }

technique Forward
{
	pass Base
	{
		VertexShader = compile vs_6_0 VSMain();
		PixelShader = compile ps_6_0 PSMain(float4(1, 0, 0, 1));
	}
	pass Outline
	{
		VertexShader = compile vs_6_0 VSMain();
	}
}
`

func parse(t *testing.T, src string) *effect.Document {
	t.Helper()
	doc := effect.NewDocument()
	if err := doc.ParseSource("test.fx", src, effect.DefaultOptions()); err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	return doc
}

func TestBatch(t *testing.T) {
	doc := parse(t, twoPasses)
	dir := t.TempDir()

	var got []Request
	fake := Func(func(_ context.Context, req Request) ([]byte, error) {
		got = append(got, req)
		return []byte(req.Profile + ":" + req.EntryPoint), nil
	})

	outputs, err := Batch(context.Background(), fake, doc, Options{
		Source:  doc.Source,
		OutDir:  dir,
		Ext:     ".dxil",
		Defines: map[string]string{"QUALITY": "2"},
	})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("compiled %d stages, want 3", len(got))
	}
	if got[1].Stage != effect.StagePixel || got[1].EntryPoint != "PSMain" || got[1].Profile != "ps_6_0" {
		t.Errorf("second request = %+v", got[1])
	}
	if !reflect.DeepEqual(got[1].Arguments, []string{"float4(1, 0, 0, 1)"}) {
		t.Errorf("Arguments = %q", got[1].Arguments)
	}
	if got[0].Source != doc.Source || got[0].Defines["QUALITY"] != "2" {
		t.Errorf("first request = %+v", got[0])
	}

	wantFiles := []string{"Forward_Base_vs.dxil", "Forward_Base_ps.dxil", "Forward_Outline_vs.dxil"}
	if len(outputs) != len(wantFiles) {
		t.Fatalf("outputs = %+v", outputs)
	}
	for i, name := range wantFiles {
		if outputs[i].Path != filepath.Join(dir, name) {
			t.Errorf("output %d = %q, want %q", i, outputs[i].Path, name)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "Forward_Base_ps.dxil"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ps_6_0:PSMain" || outputs[1].Size != len(data) {
		t.Errorf("bytecode = %q, size %d", data, outputs[1].Size)
	}
}

func TestBatchStopsAtFirstFailure(t *testing.T) {
	doc := parse(t, twoPasses)
	dir := t.TempDir()

	calls := 0
	fake := Func(func(_ context.Context, req Request) ([]byte, error) {
		calls++
		if req.Stage == effect.StagePixel {
			return nil, &ExitError{Code: 1, Output: "error: undeclared identifier 'tint'"}
		}
		return []byte("ok"), nil
	})

	outputs, err := Batch(context.Background(), fake, doc, Options{OutDir: dir})
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if ce.Technique != "Forward" || ce.Pass != "Base" || ce.Stage != effect.StagePixel || ce.EntryPoint != "PSMain" || ce.Profile != "ps_6_0" {
		t.Errorf("Error = %+v", ce)
	}
	if ce.Diagnostic != "error: undeclared identifier 'tint'" {
		t.Errorf("Diagnostic = %q", ce.Diagnostic)
	}
	var ee *ExitError
	if !errors.As(err, &ee) || ee.Code != 1 {
		t.Errorf("error does not unwrap to the exit error: %v", err)
	}
	if calls != 2 {
		t.Errorf("compiler called %d times, want 2", calls)
	}
	if len(outputs) != 1 || filepath.Base(outputs[0].Path) != "Forward_Base_vs.cso" {
		t.Errorf("outputs = %+v", outputs)
	}
	if _, err := os.Stat(filepath.Join(dir, "Forward_Outline_vs.cso")); !os.IsNotExist(err) {
		t.Error("stages after the failure were compiled")
	}
}

func TestBatchCanceled(t *testing.T) {
	doc := parse(t, twoPasses)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := Func(func(context.Context, Request) ([]byte, error) {
		t.Error("compiler called after cancellation")
		return nil, nil
	})
	if _, err := Batch(ctx, fake, doc, Options{OutDir: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		stage effect.Stage
		ext   string
		want  string
	}{
		{effect.StageVertex, "", "T_P_vs.cso"},
		{effect.StageHull, "cso", "T_P_hs.cso"},
		{effect.StageDomain, ".spv", "T_P_ds.spv"},
		{effect.StageGeometry, "bin", "T_P_gs.bin"},
		{effect.StagePixel, "", "T_P_ps.cso"},
		{effect.StageCompute, "", "T_P_cs.cso"},
		{effect.StageAmplification, "", "T_P_as.cso"},
		{effect.StageMesh, "", "T_P_ms.cso"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FileName("T", "P", tt.stage, tt.ext); got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileNameReplacesPathSeparators(t *testing.T) {
	tests := []struct {
		technique, pass string
		want            string
	}{
		{"a/../../pwn", "p", "a_.._.._pwn_p_vs.cso"},
		{`dir\sub`, "c:x", "dir_sub_c_x_vs.cso"},
		{"..", "..", ".._.._vs.cso"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FileName(tt.technique, tt.pass, effect.StageVertex, "")
			if got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
			if filepath.Base(got) != got {
				t.Errorf("FileName() = %q has a directory part", got)
			}
		})
	}
}

func TestBatchStaysInOutDir(t *testing.T) {
	doc := effect.NewDocument()
	doc.Techniques = []effect.Technique{{
		Name: "a/../../pwn",
		Passes: []effect.Pass{{
			Name:    "p",
			Shaders: []effect.ShaderStub{{Stage: effect.StageVertex, EntryPoint: "m", Profile: "vs_5_0"}},
		}},
	}}
	dir := filepath.Join(t.TempDir(), "sub", "out")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	fake := Func(func(context.Context, Request) ([]byte, error) { return []byte{1}, nil })
	outputs, err := Batch(context.Background(), fake, doc, Options{OutDir: dir})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("len(outputs) = %d, want 1", len(outputs))
	}
	if got := filepath.Dir(outputs[0].Path); got != dir {
		t.Errorf("written to %q, want a file directly in %q", outputs[0].Path, dir)
	}
}

func TestDXCArgs(t *testing.T) {
	req := Request{
		EntryPoint:  "PSMain",
		Profile:     "ps_6_0",
		IncludeDirs: []string{"inc", "lib"},
		Defines:     map[string]string{"B": "", "A": "1"},
	}
	got := DXCArgs(req, "in.hlsl", "out.bin")
	want := []string{
		"-nologo", "-T", "ps_6_0", "-E", "PSMain", "-Fo", "out.bin",
		"-I", "inc", "-I", "lib", "-D", "A=1", "-D", "B", "in.hlsl",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DXCArgs() = %q, want %q", got, want)
	}
	if NewDXC("").Path != "dxc" {
		t.Error("NewDXC(\"\") should use dxc from PATH")
	}

	req.Arguments = []string{"float4(1, 0, 0, 1)"}
	if got := DXCArgs(req, "in.hlsl", "out.bin"); !reflect.DeepEqual(got, want) {
		t.Errorf("DXCArgs() with entry point arguments = %q, want %q", got, want)
	}
}

func TestCommand(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not found")
	}

	t.Run("success", func(t *testing.T) {
		c := &Command{
			Path:    sh,
			TempDir: t.TempDir(),
			Args: func(_ Request, input, output string) []string {
				return []string{"-c", `cp "$0" "$1"`, input, output}
			},
		}
		got, err := c.Compile(context.Background(), Request{Source: "float4 main() : SV_Target { return 1; }"})
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if string(got) != "float4 main() : SV_Target { return 1; }" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("arguments", func(t *testing.T) {
		c := &Command{
			Path:    sh,
			TempDir: t.TempDir(),
			Args: func(req Request, _, output string) []string {
				return append([]string{"-c", `echo "$@" > "$0"`, output}, req.Arguments...)
			},
		}
		got, err := c.Compile(context.Background(), Request{Arguments: []string{"1", "float2(0, 1)"}})
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if string(got) != "1 float2(0, 1)\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("failure", func(t *testing.T) {
		c := &Command{
			Path:    sh,
			TempDir: t.TempDir(),
			Args: func(Request, string, string) []string {
				return []string{"-c", "echo 'bad shader' >&2; exit 3"}
			},
		}
		_, err := c.Compile(context.Background(), Request{})
		var ee *ExitError
		if !errors.As(err, &ee) {
			t.Fatalf("error = %v, want *ExitError", err)
		}
		if ee.Code != 3 || ee.Output != "bad shader" {
			t.Errorf("ExitError = %+v", ee)
		}
	})
}

func TestErrorString(t *testing.T) {
	e := &Error{
		Technique:  "T",
		Pass:       "P",
		Stage:      effect.StageVertex,
		EntryPoint: "VSMain",
		Profile:    "vs_5_0",
		Diagnostic: "line 3: error",
		Err:        &ExitError{Code: 2},
	}
	want := "technique \"T\" pass \"P\": vertex shader VSMain (vs_5_0): compiler exited with status 2\nline 3: error"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}
