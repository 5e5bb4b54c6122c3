// Package runner orchestrates the parse -> format -> output pipeline
// over a batch of files.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
	"github.com/donaldgifford/hsfmt/pkg/diff"
	"github.com/donaldgifford/hsfmt/pkg/hsfmt"
)

// Exit codes.
const (
	ExitOK     = 0 // everything already clean
	ExitIssues = 1 // differences or findings in check/list/diff mode
	ExitError  = 2 // unreadable input, bad config, or fatal parse failure
)

// Options configures the runner behavior.
type Options struct {
	Files     []string
	Check     bool // report, touch nothing
	Diff      bool // print unified diffs
	List      bool // print names of files that would change
	Write     bool // rewrite files in place (default for file args)
	SelfCheck bool // verify the output is a fixed point of the formatter

	ConfigPath string
	Config     *config.Config // when set, ConfigPath is ignored

	Jobs    int // worker count; <=0 means GOMAXPROCS
	Color   bool
	Quiet   bool
	Verbose bool

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	FS     afero.Fs
	Logger logrus.FieldLogger
}

// result captures one file's trip through the pipeline. Reporting is
// deferred until the whole batch is done so output order matches the
// argument order regardless of which worker finished first.
type result struct {
	path string
	in   string
	out  hsfmt.Result
	err  error
	done bool
}

// Run executes the pipeline and returns an exit code. With no files it
// formats stdin. ctx cancellation stops the batch between files;
// already-running files finish.
func Run(ctx context.Context, opts *Options) int {
	opts.fillDefaults()

	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			opts.Logger.WithError(err).Error("loading configuration")
			return ExitError
		}
	}

	if len(opts.Files) == 0 {
		return opts.runStdin(cfg)
	}

	results := opts.processAll(ctx, cfg)

	code := ExitOK
	for _, r := range results {
		if c := opts.report(r); c > code {
			code = c
		}
	}
	return code
}

func (opts *Options) fillDefaults() {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Logger == nil {
		log := logrus.New()
		log.SetOutput(opts.Stderr)
		switch {
		case opts.Verbose:
			log.SetLevel(logrus.DebugLevel)
		case opts.Quiet:
			log.SetLevel(logrus.ErrorLevel)
		}
		opts.Logger = log
	}
}

// processAll fans the file list out to a worker pool. Each file is an
// independent task: the tree and diagnostics for one file are owned by
// exactly one worker, so no locking is needed beyond the index split.
func (opts *Options) processAll(ctx context.Context, cfg *config.Config) []result {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(opts.Files) {
		jobs = len(opts.Files)
	}

	results := make([]result, len(opts.Files))
	for i, path := range opts.Files {
		results[i].path = path
	}

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = opts.processFile(cfg, opts.Files[idx])
			}
		}()
	}

feed:
	for i := range opts.Files {
		if ctx.Err() != nil {
			opts.Logger.WithError(ctx.Err()).Debug("batch cancelled")
			break feed
		}
		select {
		case work <- i:
		case <-ctx.Done():
			opts.Logger.WithError(ctx.Err()).Debug("batch cancelled")
			break feed
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if !results[i].done && results[i].err == nil {
				results[i].err = err
			}
		}
	}
	return results
}

func (opts *Options) processFile(cfg *config.Config, path string) result {
	r := result{path: path, done: true}
	log := opts.Logger.WithField("path", path)

	data, err := afero.ReadFile(opts.FS, path)
	if err != nil {
		log.WithError(err).Error("reading file")
		r.err = err
		return r
	}
	r.in = string(data)

	r.out, err = hsfmt.Format(r.in, cfg)
	if err != nil {
		log.WithError(err).Error("formatting failed")
		r.err = err
		return r
	}

	if opts.SelfCheck {
		r.out.Diagnostics = append(r.out.Diagnostics, opts.selfCheck(cfg, path, r.in)...)
	}

	changed := r.out.Output != r.in
	log.WithField("changed", changed).Debug("processed")

	if changed && opts.writeMode() {
		if err := afero.WriteFile(opts.FS, path, []byte(r.out.Output), 0o644); err != nil {
			log.WithError(err).Error("writing file")
			r.err = err
		}
	}
	return r
}

// selfCheck formats the input a second time. Instability is a defect in
// the pass pipeline, reported at error severity; the first run's output
// is still used.
func (opts *Options) selfCheck(cfg *config.Config, path, src string) []diag.Diagnostic {
	stable, err := hsfmt.CheckIdempotent(src, cfg)
	if err != nil || stable {
		return nil
	}
	return []diag.Diagnostic{diag.New(
		diag.KindIdempotenceViolation, diag.SeverityError, token.Span{},
		"self-check", "formatting %s twice does not converge", path,
	)}
}

// writeMode reports whether files should be rewritten in place. Like
// gofmt's ancestors, naming files without a reporting flag means fix
// them.
func (opts *Options) writeMode() bool {
	return opts.Write || !(opts.Check || opts.Diff || opts.List)
}

func (opts *Options) report(r result) int {
	if r.err != nil {
		return ExitError
	}

	code := opts.printDiags(r.path, r.out.Diagnostics)
	changed := r.out.Output != r.in

	switch {
	case opts.List:
		if changed {
			fmt.Fprintln(opts.Stdout, r.path)
			code = max(code, ExitIssues)
		}
	case opts.Check:
		if changed {
			if !opts.Quiet {
				fmt.Fprintln(opts.Stderr, r.path)
			}
			code = max(code, ExitIssues)
		}
	case opts.Diff:
		if changed {
			opts.printDiff(r.path, r.in, r.out.Output)
			code = max(code, ExitIssues)
		}
	}
	return code
}

// printDiags writes findings to stderr, one per line, and maps their
// severity to an exit code. Advisories are informational only.
func (opts *Options) printDiags(path string, ds []diag.Diagnostic) int {
	code := ExitOK
	for _, d := range ds {
		switch d.Severity {
		case diag.SeverityError:
			code = max(code, ExitError)
		case diag.SeverityWarning:
			if opts.Check || opts.List {
				code = max(code, ExitIssues)
			}
		}
		if opts.Quiet && d.Severity != diag.SeverityError {
			continue
		}
		fmt.Fprintf(opts.Stderr, "%s:%s\n", path, d)
	}
	return code
}

func (opts *Options) printDiff(path, in, out string) {
	if opts.Color {
		diff.Colored(opts.Stdout, path, in, out)
		return
	}
	fmt.Fprint(opts.Stdout, diff.Unified(path, in, out))
}

// runStdin formats a single input from stdin. Check and diff modes are
// honored; write mode degenerates to printing the result.
func (opts *Options) runStdin(cfg *config.Config) int {
	const name = "<stdin>"

	data, err := io.ReadAll(opts.Stdin)
	if err != nil {
		opts.Logger.WithError(err).Error("reading stdin")
		return ExitError
	}
	in := string(data)

	out, err := hsfmt.Format(in, cfg)
	if err != nil {
		opts.Logger.WithError(err).Error("formatting failed")
		return ExitError
	}

	if opts.SelfCheck {
		out.Diagnostics = append(out.Diagnostics, opts.selfCheck(cfg, name, in)...)
	}

	code := opts.printDiags(name, out.Diagnostics)
	changed := out.Output != in

	switch {
	case opts.Check || opts.List:
		if changed {
			code = max(code, ExitIssues)
		}
	case opts.Diff:
		if changed {
			opts.printDiff(name, in, out.Output)
			code = max(code, ExitIssues)
		}
	default:
		fmt.Fprint(opts.Stdout, out.Output)
	}
	return code
}
