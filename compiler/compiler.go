// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package compiler hands the shader stubs of a parsed effect to an external
// shader compiler and writes the resulting bytecode.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gogpu/fxc/effect"
)

// DefaultExt is the bytecode file extension used when none is given.
const DefaultExt = "cso"

// Request describes one shader stage to compile.
type Request struct {
	// SourcePath is the rewritten shader source on disk. When empty,
	// Source is compiled instead.
	SourcePath string
	Source     string

	Stage      effect.Stage
	EntryPoint string
	Profile    string
	// Arguments are the literal entry point arguments from the compile
	// expression. dxc has no flag for them, so DXCArgs leaves them out; a
	// Compiler or a Command.Args function that binds uniform parameters
	// reads them here.
	Arguments []string

	IncludeDirs []string
	Defines     map[string]string
}

// Compiler turns one shader stage into bytecode.
type Compiler interface {
	Compile(ctx context.Context, req Request) ([]byte, error)
}

// Func adapts a function to the Compiler interface.
type Func func(ctx context.Context, req Request) ([]byte, error)

// Compile calls f.
func (f Func) Compile(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// Error is a failed compilation of one pass stage.
type Error struct {
	Technique  string
	Pass       string
	Stage      effect.Stage
	EntryPoint string
	Profile    string
	// Diagnostic is the compiler's output, if any.
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "technique %q pass %q: %s shader %s (%s)", e.Technique, e.Pass, e.Stage, e.EntryPoint, e.Profile)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if e.Diagnostic != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Diagnostic)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitError reports a compiler process that ran and failed.
type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("compiler exited with status %d", e.Code)
}

// Command runs a compiler executable once per request.
type Command struct {
	// Path is the executable.
	Path string
	// Args builds the command line; nil uses DXCArgs.
	Args func(req Request, input, output string) []string
	// TempDir holds intermediate files; empty uses os.TempDir.
	TempDir string
}

// NewDXC returns a Command for dxc at path, or "dxc" from PATH when path is
// empty.
func NewDXC(path string) *Command {
	if path == "" {
		path = "dxc"
	}
	return &Command{Path: path}
}

// DXCArgs returns the dxc command line for req. Defines are passed in
// sorted order. req.Arguments are not part of the command line.
func DXCArgs(req Request, input, output string) []string {
	args := []string{"-nologo", "-T", req.Profile, "-E", req.EntryPoint, "-Fo", output}
	for _, dir := range req.IncludeDirs {
		args = append(args, "-I", dir)
	}
	keys := make([]string, 0, len(req.Defines))
	for k := range req.Defines {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		def := k
		if v := req.Defines[k]; v != "" {
			def += "=" + v
		}
		args = append(args, "-D", def)
	}
	return append(args, input)
}

// Compile runs the executable and returns the contents of its output file.
func (c *Command) Compile(ctx context.Context, req Request) ([]byte, error) {
	dir, err := os.MkdirTemp(c.TempDir, "fxc-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	input := req.SourcePath
	if input == "" {
		input = filepath.Join(dir, "source.hlsl")
		if err := os.WriteFile(input, []byte(req.Source), 0o600); err != nil {
			return nil, err
		}
	}
	output := filepath.Join(dir, "out.bin")

	argsFn := c.Args
	if argsFn == nil {
		argsFn = DXCArgs
	}
	cmd := exec.CommandContext(ctx, c.Path, argsFn(req, input, output)...) //nolint:gosec // G204: the executable is user configured
	out, err := cmd.CombinedOutput()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, &ExitError{Code: ee.ExitCode(), Output: strings.TrimSpace(string(out))}
		}
		return nil, err
	}
	return os.ReadFile(output)
}

// Options configures Batch.
type Options struct {
	// SourcePath is the rewritten source on disk, passed to every request.
	SourcePath string
	Source     string
	// OutDir receives the bytecode files.
	OutDir string
	// Ext is the bytecode extension, with or without the leading dot.
	Ext         string
	IncludeDirs []string
	Defines     map[string]string
}

// Output is one written bytecode file.
type Output struct {
	Technique string
	Pass      string
	Stage     effect.Stage
	Path      string
	Size      int
}

// FileName returns the bytecode file name for a pass stage:
// <technique>_<pass>_<stage prefix>.<ext>. Path separators and other
// characters that are not safe in a file name are replaced by '_', so the
// result always names a file directly inside the output directory.
func FileName(technique, pass string, stage effect.Stage, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExt
	}
	return fmt.Sprintf("%s_%s_%s.%s", fileSafe(technique), fileSafe(pass), stage.Prefix(), fileSafe(ext))
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)
}

// Batch compiles every shader of every pass, walking techniques, passes and
// stages in declaration order. It stops at the first failure and returns
// the files written so far together with an *Error.
func Batch(ctx context.Context, c Compiler, doc *effect.Document, opts Options) ([]Output, error) {
	var outputs []Output
	for _, tech := range doc.Techniques {
		for _, pass := range tech.Passes {
			for _, stub := range pass.Shaders {
				if err := ctx.Err(); err != nil {
					return outputs, err
				}
				req := Request{
					SourcePath:  opts.SourcePath,
					Source:      opts.Source,
					Stage:       stub.Stage,
					EntryPoint:  stub.EntryPoint,
					Profile:     stub.Profile,
					Arguments:   stub.Arguments,
					IncludeDirs: opts.IncludeDirs,
					Defines:     opts.Defines,
				}
				fail := func(err error) error {
					e := &Error{
						Technique:  tech.Name,
						Pass:       pass.Name,
						Stage:      stub.Stage,
						EntryPoint: stub.EntryPoint,
						Profile:    stub.Profile,
						Err:        err,
					}
					var ee *ExitError
					if errors.As(err, &ee) {
						e.Diagnostic = ee.Output
					}
					return e
				}

				code, err := c.Compile(ctx, req)
				if err != nil {
					return outputs, fail(err)
				}
				path := filepath.Join(opts.OutDir, FileName(tech.Name, pass.Name, stub.Stage, opts.Ext))
				if err := os.WriteFile(path, code, 0o644); err != nil { //nolint:gosec // G306: build artifacts are world readable
					return outputs, fail(err)
				}
				outputs = append(outputs, Output{
					Technique: tech.Name,
					Pass:      pass.Name,
					Stage:     stub.Stage,
					Path:      path,
					Size:      len(code),
				})
			}
		}
	}
	return outputs, nil
}
