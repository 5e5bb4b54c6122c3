package format

import (
	"testing"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/formatter"
	"github.com/donaldgifford/hsfmt/internal/parser"
)

// formatWith parses src, applies the given passes with the default
// config and renders the result.
func formatWith(t *testing.T, src string, passes ...formatter.Pass) (string, []diag.Diagnostic) {
	t.Helper()
	cfg := config.DefaultConfig()
	mod, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	mod, diags := formatter.Run(mod, cfg, passes)
	out, more := formatter.Write(mod, cfg)
	return out, append(diags, more...)
}

func logFirstDifference(t *testing.T, want, got string) {
	t.Helper()
	for i := 0; i < len(want) && i < len(got); i++ {
		if want[i] == got[i] {
			continue
		}
		start := i - 20
		if start < 0 {
			start = 0
		}
		end := i + 20
		if end > len(want) {
			end = len(want)
		}
		ge := end
		if ge > len(got) {
			ge = len(got)
		}
		t.Errorf("first difference at byte %d:\nwant: %q\ngot:  %q", i, want[start:end], got[start:ge])
		return
	}
}

func TestIndentApply(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "do block to one unit",
			input: "module M where\n" +
				"\n" +
				"main :: IO ()\n" +
				"main = do\n" +
				"    putStrLn \"a\"\n" +
				"    putStrLn \"b\"\n",
			want: "module M where\n" +
				"\n" +
				"main :: IO ()\n" +
				"main = do\n" +
				"  putStrLn \"a\"\n" +
				"  putStrLn \"b\"\n",
		},
		{
			name: "trailing where moves to its own line",
			input: "module M where\n" +
				"\n" +
				"area :: Double -> Double\n" +
				"area r = double r * pi where double x = x + x\n",
			want: "module M where\n" +
				"\n" +
				"area :: Double -> Double\n" +
				"area r = double r * pi\n" +
				"  where\n" +
				"    double x = x + x\n",
		},
		{
			name: "class head keeps where inline",
			input: "module M where\n" +
				"\n" +
				"class Shape a where\n" +
				"    area :: a -> Double\n" +
				"    name :: a -> String\n",
			want: "module M where\n" +
				"\n" +
				"class Shape a where\n" +
				"  area :: a -> Double\n" +
				"  name :: a -> String\n",
		},
		{
			name: "guards hang one unit",
			input: "module M where\n" +
				"\n" +
				"sign :: Int -> Int\n" +
				"sign n\n" +
				"      | n < 0 = negate 1\n" +
				"      | otherwise = 1\n",
			want: "module M where\n" +
				"\n" +
				"sign :: Int -> Int\n" +
				"sign n\n" +
				"  | n < 0 = negate 1\n" +
				"  | otherwise = 1\n",
		},
		{
			name: "continuation hangs two units",
			input: "module M where\n" +
				"\n" +
				"total :: Int\n" +
				"total = sum\n" +
				" [ 1\n" +
				" , 2\n" +
				" ]\n",
			want: "module M where\n" +
				"\n" +
				"total :: Int\n" +
				"total = sum\n" +
				"    [ 1\n" +
				"    , 2\n" +
				"    ]\n",
		},
		{
			name: "let bindings stay aligned under the first",
			input: "module M where\n" +
				"\n" +
				"total :: Int\n" +
				"total = run where\n" +
				"  run = do\n" +
				"    let a = 1\n" +
				"        b = 2\n" +
				"    pure (a + b)\n",
			want: "module M where\n" +
				"\n" +
				"total :: Int\n" +
				"total = run\n" +
				"  where\n" +
				"    run = do\n" +
				"      let a = 1\n" +
				"          b = 2\n" +
				"      pure (a + b)\n",
		},
		{
			name: "case alternatives one unit in",
			input: "module M where\n" +
				"\n" +
				"describe :: Int -> String\n" +
				"describe n = case n of\n" +
				"      0 -> \"zero\"\n" +
				"      _ -> \"other\"\n",
			want: "module M where\n" +
				"\n" +
				"describe :: Int -> String\n" +
				"describe n = case n of\n" +
				"  0 -> \"zero\"\n" +
				"  _ -> \"other\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := formatWith(t, tt.input, &Indent{})
			if got != tt.want {
				t.Errorf("output mismatch\nwant:\n%s\ngot:\n%s", tt.want, got)
				logFirstDifference(t, tt.want, got)
			}
		})
	}
}

func TestIndentIdempotent(t *testing.T) {
	src := "module M where\n" +
		"\n" +
		"total :: Int\n" +
		"total = run where\n" +
		"  run = do\n" +
		"    let a = 1\n" +
		"        b = 2\n" +
		"    pure (a + b)\n"

	once, _ := formatWith(t, src, &Indent{})
	twice, _ := formatWith(t, once, &Indent{})
	if once != twice {
		t.Error("second run changed the output")
		logFirstDifference(t, once, twice)
	}
}

func TestIndentLeavesSignaturesAlone(t *testing.T) {
	src := "module M where\n" +
		"\n" +
		"combine :: Int\n" +
		"        -> Int\n" +
		"        -> Int\n" +
		"combine = (+)\n"

	got, _ := formatWith(t, src, &Indent{})
	if got != src {
		t.Error("indent pass should not reshape type signatures")
		logFirstDifference(t, src, got)
	}
}
