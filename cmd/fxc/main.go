// Command fxc is the effect compiler CLI.
//
// Usage:
//
//	fxc [options] <input.fx>... -o <dir> [-c]
//
// Examples:
//
//	fxc lit.fx -o build                  # Write input_source.fx and variation.xml
//	fxc lit.fx -o build -c               # Also compile every pass stage with dxc
//	fxc -format json -o build a.fx b.fx  # One subdirectory per input
//	fxc -webgpu lit.fx -o build          # Report states WebGPU cannot express
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/fxc"
	"github.com/gogpu/fxc/compiler"
	"github.com/gogpu/fxc/effect"
	"github.com/gogpu/fxc/metadata"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	noteStyle    = lipgloss.NewStyle().Faint(true)
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type config struct {
	outDir       string
	compile      bool
	includes     listFlag
	defines      listFlag
	compilerPath string
	ext          string
	format       string
	webgpu       bool
	jobs         int
	verbose      bool
	version      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(cfg *config, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("fxc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.outDir, "o", "", "output directory (required)")
	fs.BoolVar(&cfg.compile, "c", false, "compile every pass stage")
	fs.Var(&cfg.includes, "I", "include search directory (repeatable)")
	fs.Var(&cfg.defines, "D", "compiler define NAME[=VALUE] (repeatable)")
	fs.StringVar(&cfg.compilerPath, "compiler", "dxc", "shader compiler executable")
	fs.StringVar(&cfg.ext, "ext", compiler.DefaultExt, "bytecode file extension")
	fs.StringVar(&cfg.format, "format", "xml", "metadata format: xml or json")
	fs.BoolVar(&cfg.webgpu, "webgpu", false, "report render states WebGPU cannot express")
	fs.IntVar(&cfg.jobs, "j", runtime.NumCPU(), "number of inputs processed in parallel")
	fs.BoolVar(&cfg.verbose, "v", false, "print progress")
	fs.BoolVar(&cfg.version, "version", false, "print version")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fxc [options] <input.fx>... -o <dir> [-c]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  fxc lit.fx -o build              Write source and metadata\n")
		fmt.Fprintf(stderr, "  fxc lit.fx -o build -c           Also compile with dxc\n")
		fmt.Fprintf(stderr, "  fxc -format json -o out a.fx b.fx One subdirectory per input\n")
	}
	return fs
}

// parseArgs parses flags that may appear before, between or after the
// inputs.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var inputs []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return inputs, nil
		}
		inputs = append(inputs, rest[0])
		args = rest[1:]
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cfg config
	fs := newFlagSet(&cfg, stderr)
	inputs, err := parseArgs(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if cfg.version {
		fmt.Fprintf(stdout, "fxc version %s\n", fxc.Version)
		return 0
	}
	if len(inputs) == 0 {
		fmt.Fprintf(stderr, "%s no input file specified\n", errorStyle.Render("error:"))
		fs.Usage()
		return 1
	}
	if cfg.outDir == "" {
		fmt.Fprintf(stderr, "%s no output directory specified (-o)\n", errorStyle.Render("error:"))
		return 1
	}
	format, err := metadata.ParseFormat(cfg.format)
	if err != nil {
		fmt.Fprintf(stderr, "%s %v\n", errorStyle.Render("error:"), err)
		return 1
	}

	opts := fxc.DefaultOptions()
	opts.Effect.SearchDirs = cfg.includes
	opts.Format = format
	opts.Compile = cfg.compile
	opts.Compiler = compiler.NewDXC(cfg.compilerPath)
	opts.BytecodeExt = cfg.ext
	opts.Defines = parseDefines(cfg.defines)
	opts.CheckWebGPU = cfg.webgpu

	jobs := make([]*job, len(inputs))
	owners := make(map[string]string, len(inputs))
	for i, input := range inputs {
		jobOpts := opts
		jobOpts.OutDir = cfg.outDir
		if len(inputs) > 1 {
			base := filepath.Base(input)
			jobOpts.OutDir = filepath.Join(cfg.outDir, strings.TrimSuffix(base, filepath.Ext(base)))
		}
		if prev, ok := owners[jobOpts.OutDir]; ok {
			fmt.Fprintf(stderr, "%s %s and %s both write to %s\n", errorStyle.Render("error:"), prev, input, jobOpts.OutDir)
			return 1
		}
		owners[jobOpts.OutDir] = input
		jobs[i] = &job{input: input, opts: jobOpts}
	}

	runJobs(ctx, jobs, cfg.jobs)

	failed := false
	for _, j := range jobs {
		j.report(stdout, stderr, cfg.verbose)
		if j.err != nil {
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

func parseDefines(defs []string) map[string]string {
	if len(defs) == 0 {
		return nil
	}
	m := make(map[string]string, len(defs))
	for _, d := range defs {
		name, value, _ := strings.Cut(d, "=")
		m[name] = value
	}
	return m
}

// job is one input file. Each job owns its document.
type job struct {
	input string
	opts  fxc.Options

	res      *fxc.Result
	err      error
	elapsed  time.Duration
	warnings []effect.Diagnostic
}

func (j *job) run(ctx context.Context) {
	start := time.Now()
	j.opts.Effect.OnDiagnostic = func(d effect.Diagnostic) {
		j.warnings = append(j.warnings, d)
	}
	j.res, j.err = fxc.Build(ctx, j.input, j.opts)
	j.elapsed = time.Since(start)
}

// runJobs processes the jobs on a worker pool and waits for all of them.
func runJobs(ctx context.Context, jobs []*job, workers int) {
	if len(jobs) == 1 {
		jobs[0].run(ctx)
		return
	}
	workers = min(max(workers, 1), len(jobs))

	pool := worker.NewDynamicWorkerPool(workers, len(jobs), time.Second)
	defer pool.Stop()

	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: j.input,
			Do: func() (any, error) {
				defer wg.Done()
				j.run(ctx)
				return j.res, j.err
			},
		})
	}
	wg.Wait()
}

func (j *job) report(stdout, stderr io.Writer, verbose bool) {
	for _, d := range j.warnings {
		style := warningStyle
		if d.Severity == effect.SeverityNote {
			style = noteStyle
		}
		fmt.Fprintf(stderr, "%s %s:%d:%d: %s\n", style.Render(d.Severity.String()+":"), d.File, d.Line, d.Column, d.Message)
	}

	if j.err != nil {
		printError(stderr, j.input, j.err)
		return
	}

	for _, issue := range j.res.Issues {
		fmt.Fprintf(stderr, "%s %s: webgpu: %s\n", warningStyle.Render("warning:"), j.input, issue)
	}

	if verbose {
		fmt.Fprintf(stdout, "%s -> %s, %s", j.input, j.res.SourcePath, j.res.MetadataPath)
		if n := len(j.res.Bytecode); n > 0 {
			fmt.Fprintf(stdout, ", %d shader(s)", n)
		}
		fmt.Fprintf(stdout, " (%v)\n", j.elapsed.Round(time.Millisecond))
	}
}

// printError reports a failed build. Parse errors show the offending line.
func printError(w io.Writer, input string, err error) {
	label := errorStyle.Render("error:")

	var pe *effect.ParseError
	if errors.As(err, &pe) {
		if src, rerr := os.ReadFile(pe.File); rerr == nil {
			if rest, ok := strings.CutPrefix(pe.FormatWithContext(string(src)), "error: "); ok {
				fmt.Fprintf(w, "%s %s", label, rest)
				return
			}
		}
		fmt.Fprintf(w, "%s %v\n", label, err)
		return
	}
	fmt.Fprintf(w, "%s %s: %v\n", label, input, err)
}
