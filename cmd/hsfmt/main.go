// Package main is the entry point for hsfmt.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/runner"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	var ee *exitErr
	switch {
	case err == nil:
	case errors.As(err, &ee):
		os.Exit(ee.code)
	default:
		fmt.Fprintf(os.Stderr, "hsfmt: %v\n", err)
		os.Exit(runner.ExitError)
	}
}

// exitErr carries the runner's exit code through cobra.
type exitErr struct{ code int }

func (e *exitErr) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func newRootCmd() *cobra.Command {
	opts := &runner.Options{}
	noColor := false

	root := &cobra.Command{
		Use:   "hsfmt [files...]",
		Short: "Format and lint Haskell source",
		Long: `hsfmt rewrites Haskell source files into a uniform style and reports
style findings it will not fix on its own.

With no files, hsfmt reads from stdin and writes the result to stdout.
Naming files rewrites them in place unless a reporting flag says
otherwise.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = args
			opts.Color = !noColor && isTerminal(os.Stdout)
			opts.Stdout = colorable.NewColorableStdout()
			opts.Stderr = os.Stderr
			opts.Logger = newLogger(opts.Verbose, opts.Quiet)

			env, err := config.ParseEnv(os.LookupEnv)
			if err != nil {
				return err
			}
			if opts.Jobs == 0 && env.Jobs != nil {
				opts.Jobs = *env.Jobs
			}

			if code := runner.Run(cmd.Context(), opts); code != runner.ExitOK {
				return &exitErr{code: code}
			}
			return nil
		},
	}

	addRunnerFlags(root.Flags(), opts, &noColor)
	root.MarkFlagsMutuallyExclusive("check", "diff", "list", "write")

	root.AddCommand(newVersionCmd())
	return root
}

func addRunnerFlags(flags *pflag.FlagSet, opts *runner.Options, noColor *bool) {
	flags.BoolVar(&opts.Check, "check", false, "exit 1 if any file would change, writing nothing")
	flags.BoolVarP(&opts.Diff, "diff", "d", false, "print unified diffs instead of rewriting files")
	flags.BoolVarP(&opts.List, "list", "l", false, "print the names of files that would change")
	flags.BoolVarP(&opts.Write, "write", "w", false, "rewrite files in place (default when files are given)")
	flags.BoolVar(&opts.SelfCheck, "self-check", false, "verify each result is a fixed point of the formatter")
	flags.StringVar(&opts.ConfigPath, "config", "", "path to config file")
	flags.IntVarP(&opts.Jobs, "jobs", "j", 0, "number of files formatted in parallel (default GOMAXPROCS)")
	flags.BoolVar(noColor, "no-color", false, "disable colored diff output")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress warnings and advisories")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log each file as it is processed")
}

func newLogger(verbose, quiet bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(colorable.NewColorableStderr())
	switch {
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	case quiet:
		log.SetLevel(logrus.ErrorLevel)
	}
	return log
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hsfmt %s (%s) %s\n", version, commit, date)
		},
	}
}
