// Package fxc compiles effect files: HLSL sources extended with render
// states, techniques, passes and tunable properties.
//
// Building an effect parses it, writes the plain HLSL source with the
// effect-only syntax removed, writes a metadata description of the states,
// techniques and properties, and optionally compiles every pass stage with
// an external shader compiler.
//
// Example usage:
//
//	opts := fxc.DefaultOptions()
//	opts.OutDir = "build/shaders"
//	opts.Compile = true
//	res, err := fxc.Build(ctx, "shaders/lit.fx", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The individual stages live in the effect, metadata, compiler and
// wgpustate packages.
package fxc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/fxc/compiler"
	"github.com/gogpu/fxc/effect"
	"github.com/gogpu/fxc/metadata"
	"github.com/gogpu/fxc/wgpustate"
)

// Version is the fxc release.
const Version = "0.4.0"

// Default output file names.
const (
	DefaultSourceName   = "input_source.fx"
	DefaultMetadataName = "variation"
)

// Options configures Build.
type Options struct {
	// Effect configures the parser.
	Effect effect.Options

	// OutDir receives every output file. It is created if missing.
	OutDir string

	// SourceName is the file name of the rewritten source.
	SourceName string

	// MetadataName is the metadata file name without extension; the
	// extension follows Format.
	MetadataName string
	Format       metadata.Format

	// Compile runs Compiler over every pass stage.
	Compile bool
	// Compiler is used when Compile is set; nil runs dxc from PATH.
	Compiler    compiler.Compiler
	BytecodeExt string
	// Defines are passed to the compiler.
	Defines map[string]string

	// CheckWebGPU reports the render states WebGPU cannot express.
	CheckWebGPU bool
}

// DefaultOptions returns options that write XML metadata next to the
// rewritten source without compiling.
func DefaultOptions() Options {
	return Options{
		Effect:       effect.DefaultOptions(),
		OutDir:       ".",
		SourceName:   DefaultSourceName,
		MetadataName: DefaultMetadataName,
		Format:       metadata.FormatXML,
		BytecodeExt:  compiler.DefaultExt,
	}
}

// Result describes a finished build.
type Result struct {
	Document     *effect.Document
	SourcePath   string
	MetadataPath string
	Bytecode     []compiler.Output
	Issues       []wgpustate.Issue
}

// Parse parses an effect file into a new document.
func Parse(path string, opts effect.Options) (*effect.Document, error) {
	doc := effect.NewDocument()
	if err := doc.ParseFile(path, opts); err != nil {
		return nil, err
	}
	return doc, nil
}

// Build parses the effect at input and writes its outputs. On a compile
// failure the result holds the files written so far and the error is a
// *compiler.Error.
func Build(ctx context.Context, input string, opts Options) (*Result, error) {
	doc, err := Parse(input, opts.Effect)
	if err != nil {
		return nil, err
	}
	return Write(ctx, doc, opts)
}

// Write writes the outputs of an already parsed document.
func Write(ctx context.Context, doc *effect.Document, opts Options) (*Result, error) {
	if opts.SourceName == "" {
		opts.SourceName = DefaultSourceName
	}
	if opts.MetadataName == "" {
		opts.MetadataName = DefaultMetadataName
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil { //nolint:gosec // G301: output directory
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	res := &Result{
		Document:     doc,
		SourcePath:   filepath.Join(opts.OutDir, opts.SourceName),
		MetadataPath: filepath.Join(opts.OutDir, opts.MetadataName+opts.Format.Ext()),
	}

	if err := os.WriteFile(res.SourcePath, []byte(doc.Source), 0o644); err != nil { //nolint:gosec // G306: build artifacts are world readable
		return nil, fmt.Errorf("write source: %w", err)
	}
	if err := writeMetadata(res.MetadataPath, metadata.Build(doc, opts.SourceName), opts.Format); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	if opts.CheckWebGPU {
		res.Issues = wgpustate.Check(doc)
	}

	if opts.Compile {
		c := opts.Compiler
		if c == nil {
			c = compiler.NewDXC("")
		}
		res.Bytecode, err = compiler.Batch(ctx, c, doc, compiler.Options{
			SourcePath:  res.SourcePath,
			Source:      doc.Source,
			OutDir:      opts.OutDir,
			Ext:         opts.BytecodeExt,
			IncludeDirs: includeDirs(doc, opts.Effect.SearchDirs),
			Defines:     opts.Defines,
		})
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// includeDirs lists the directory of the effect followed by the search
// directories, so the compiler resolves the includes the parser resolved.
func includeDirs(doc *effect.Document, search []string) []string {
	var dirs []string
	if doc.Name != "" {
		dirs = append(dirs, filepath.Dir(doc.Name))
	}
	return append(dirs, search...)
}

func writeMetadata(path string, root *metadata.Root, format metadata.Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return root.Encode(f, format)
}
