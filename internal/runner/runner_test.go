package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/donaldgifford/hsfmt/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// nullLogger discards everything; runner output under test is the
// stdout/stderr buffers, not the log.
func nullLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const (
	cleanSrc = "module Good (g) where\n" +
		"\n" +
		"g :: Int\n" +
		"g = 1\n"

	// Imports out of order; formatting swaps them. Both carry explicit
	// lists so no findings muddy the assertions.
	messySrc = "module Bad (b) where\n" +
		"\n" +
		"import Data.Text (Text)\n" +
		"import Control.Monad (when)\n" +
		"\n" +
		"b :: Int\n" +
		"b = 1\n"

	messyFormatted = "module Bad (b) where\n" +
		"\n" +
		"import Control.Monad (when)\n" +
		"import Data.Text (Text)\n" +
		"\n" +
		"b :: Int\n" +
		"b = 1\n"
)

// newOpts builds Options over an in-memory filesystem seeded with the
// given files.
func newOpts(t *testing.T, files map[string]string) (*Options, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	var stdout, stderr bytes.Buffer
	return &Options{
		Config: config.DefaultConfig(),
		Stdout: &stdout,
		Stderr: &stderr,
		Stdin:  strings.NewReader(""),
		FS:     fs,
		Logger: nullLogger(),
	}, &stdout, &stderr
}

func TestRunWritesByDefault(t *testing.T) {
	opts, _, _ := newOpts(t, map[string]string{"bad.hs": messySrc, "good.hs": cleanSrc})
	opts.Files = []string{"bad.hs", "good.hs"}

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitOK, code)

	data, err := afero.ReadFile(opts.FS, "bad.hs")
	require.NoError(t, err)
	assert.Equal(t, messyFormatted, string(data))

	data, err = afero.ReadFile(opts.FS, "good.hs")
	require.NoError(t, err)
	assert.Equal(t, cleanSrc, string(data))
}

func TestRunCheck(t *testing.T) {
	opts, _, stderr := newOpts(t, map[string]string{"bad.hs": messySrc})
	opts.Files = []string{"bad.hs"}
	opts.Check = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)
	assert.Contains(t, stderr.String(), "bad.hs")

	// Check mode never touches the file.
	data, err := afero.ReadFile(opts.FS, "bad.hs")
	require.NoError(t, err)
	assert.Equal(t, messySrc, string(data))
}

func TestRunCheckClean(t *testing.T) {
	opts, stdout, stderr := newOpts(t, map[string]string{"good.hs": cleanSrc})
	opts.Files = []string{"good.hs"}
	opts.Check = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunCheckQuiet(t *testing.T) {
	opts, _, stderr := newOpts(t, map[string]string{"bad.hs": messySrc})
	opts.Files = []string{"bad.hs"}
	opts.Check = true
	opts.Quiet = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)
	assert.Empty(t, stderr.String())
}

func TestRunList(t *testing.T) {
	opts, stdout, _ := newOpts(t, map[string]string{"bad.hs": messySrc, "good.hs": cleanSrc})
	opts.Files = []string{"good.hs", "bad.hs"}
	opts.List = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)
	assert.Equal(t, "bad.hs\n", stdout.String())
}

func TestRunDiff(t *testing.T) {
	opts, stdout, _ := newOpts(t, map[string]string{"bad.hs": messySrc})
	opts.Files = []string{"bad.hs"}
	opts.Diff = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)

	out := stdout.String()
	assert.Contains(t, out, "--- a/bad.hs")
	assert.Contains(t, out, "-import Data.Text (Text)")
	assert.Contains(t, out, "+import Data.Text (Text)")
}

func TestRunDiffClean(t *testing.T) {
	opts, stdout, _ := newOpts(t, map[string]string{"good.hs": cleanSrc})
	opts.Files = []string{"good.hs"}
	opts.Diff = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout.String())
}

func TestRunMissingFile(t *testing.T) {
	opts, _, _ := newOpts(t, nil)
	opts.Files = []string{"nope.hs"}

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitError, code)
}

func TestRunBadFileDoesNotStopBatch(t *testing.T) {
	opts, _, _ := newOpts(t, map[string]string{
		"broken.hs": "{- never closed\n",
		"bad.hs":    messySrc,
	})
	opts.Files = []string{"broken.hs", "bad.hs"}

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitError, code)

	// The parse failure in broken.hs must not keep bad.hs from being
	// formatted.
	data, err := afero.ReadFile(opts.FS, "bad.hs")
	require.NoError(t, err)
	assert.Equal(t, messyFormatted, string(data))

	data, err = afero.ReadFile(opts.FS, "broken.hs")
	require.NoError(t, err)
	assert.Equal(t, "{- never closed\n", string(data))
}

func TestRunWarningsGateCheckMode(t *testing.T) {
	// Formatted text with a bare import: no rewrite needed, but the
	// finding still fails check mode.
	src := "module W (w) where\n" +
		"\n" +
		"import Data.Text\n" +
		"\n" +
		"w :: Int\n" +
		"w = 1\n"

	opts, _, stderr := newOpts(t, map[string]string{"w.hs": src})
	opts.Files = []string{"w.hs"}
	opts.Check = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)
	assert.Contains(t, stderr.String(), "MissingImportList")

	// The same finding is informational in write mode.
	opts2, _, stderr2 := newOpts(t, map[string]string{"w.hs": src})
	opts2.Files = []string{"w.hs"}

	code = Run(context.Background(), opts2)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stderr2.String(), "MissingImportList")
}

func TestRunSelfCheck(t *testing.T) {
	opts, _, stderr := newOpts(t, map[string]string{"bad.hs": messySrc})
	opts.Files = []string{"bad.hs"}
	opts.SelfCheck = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitOK, code)
	assert.NotContains(t, stderr.String(), "IdempotenceViolation")

	data, err := afero.ReadFile(opts.FS, "bad.hs")
	require.NoError(t, err)
	assert.Equal(t, messyFormatted, string(data))
}

func TestRunSingleWorkerKeepsOrder(t *testing.T) {
	files := map[string]string{
		"a.hs": messySrc,
		"b.hs": messySrc,
		"c.hs": messySrc,
	}
	opts, stdout, _ := newOpts(t, files)
	opts.Files = []string{"c.hs", "a.hs", "b.hs"}
	opts.List = true
	opts.Jobs = 1

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)
	assert.Equal(t, "c.hs\na.hs\nb.hs\n", stdout.String())
}

func TestRunManyWorkersKeepOrder(t *testing.T) {
	files := make(map[string]string)
	var args []string
	for _, name := range []string{"e.hs", "d.hs", "c.hs", "b.hs", "a.hs"} {
		files[name] = messySrc
		args = append(args, name)
	}
	opts, stdout, _ := newOpts(t, files)
	opts.Files = args
	opts.List = true
	opts.Jobs = 4

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)
	assert.Equal(t, "e.hs\nd.hs\nc.hs\nb.hs\na.hs\n", stdout.String())
}

func TestRunCancelledContext(t *testing.T) {
	opts, _, _ := newOpts(t, map[string]string{"bad.hs": messySrc})
	opts.Files = []string{"bad.hs"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := Run(ctx, opts)
	assert.Equal(t, ExitError, code)

	// Nothing was processed, nothing was written.
	data, err := afero.ReadFile(opts.FS, "bad.hs")
	require.NoError(t, err)
	assert.Equal(t, messySrc, string(data))
}

func TestRunStdinFormat(t *testing.T) {
	opts, stdout, _ := newOpts(t, nil)
	opts.Stdin = strings.NewReader(messySrc)

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, messyFormatted, stdout.String())
}

func TestRunStdinCheck(t *testing.T) {
	opts, stdout, _ := newOpts(t, nil)
	opts.Stdin = strings.NewReader(messySrc)
	opts.Check = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)
	assert.Empty(t, stdout.String())

	opts2, stdout2, _ := newOpts(t, nil)
	opts2.Stdin = strings.NewReader(cleanSrc)
	opts2.Check = true

	code = Run(context.Background(), opts2)
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stdout2.String())
}

func TestRunStdinDiff(t *testing.T) {
	opts, stdout, _ := newOpts(t, nil)
	opts.Stdin = strings.NewReader(messySrc)
	opts.Diff = true

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitIssues, code)
	assert.Contains(t, stdout.String(), "--- a/<stdin>")
}

func TestRunConfigPath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "hsfmt.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format:\n  indent_width: 4\n"), 0o644))

	src := "module C (c) where\n" +
		"\n" +
		"c :: IO ()\n" +
		"c = do\n" +
		"  pure ()\n"
	want := "module C (c) where\n" +
		"\n" +
		"c :: IO ()\n" +
		"c = do\n" +
		"    pure ()\n"

	opts, _, _ := newOpts(t, map[string]string{"c.hs": src})
	opts.Config = nil
	opts.ConfigPath = cfgPath
	opts.Files = []string{"c.hs"}

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitOK, code)

	data, err := afero.ReadFile(opts.FS, "c.hs")
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func TestRunBadConfig(t *testing.T) {
	opts, _, _ := newOpts(t, map[string]string{"good.hs": cleanSrc})
	opts.Config = nil
	opts.ConfigPath = "/nonexistent/hsfmt.yml"
	opts.Files = []string{"good.hs"}

	code := Run(context.Background(), opts)
	assert.Equal(t, ExitError, code)
}
