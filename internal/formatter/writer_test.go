package formatter

import (
	"strings"
	"testing"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/parser"
)

func render(t *testing.T, src string) (string, []diag.Diagnostic) {
	t.Helper()
	mod, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return Write(mod, config.DefaultConfig())
}

func TestWriteRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "minimal module",
			input: "module Main where\n\nmain :: IO ()\nmain = putStrLn \"hi\"\n",
		},
		{
			name:  "pragma and doc comment",
			input: "{-# LANGUAGE OverloadedStrings #-}\n\n-- | Entry point.\nmodule Main where\n",
		},
		{
			name:  "one-line export list",
			input: "module Data.Color (Color (..), mkColor) where\n",
		},
		{
			name: "multi-line export list",
			input: "module M\n" +
				"  ( foo\n" +
				"  , bar\n" +
				"  ) where\n" +
				"\n" +
				"foo :: Int\n" +
				"foo = 1\n" +
				"\n" +
				"bar :: Int\n" +
				"bar = 2\n",
		},
		{
			name: "imports",
			input: "module M where\n" +
				"\n" +
				"import qualified Data.Map as Map\n" +
				"import Data.Text (Text, pack)\n" +
				"\n" +
				"import App.Types\n",
		},
		{
			name: "where block",
			input: "module M where\n" +
				"\n" +
				"total :: Int\n" +
				"total = go 0\n" +
				"  where\n" +
				"    go n = n\n",
		},
		{
			name:  "one-line data with deriving",
			input: "data Color = Red | Green | Blue deriving (Eq, Show)\n",
		},
		{
			name: "multi-line sum type",
			input: "data Color\n" +
				"  = Red\n" +
				"  | Green\n" +
				"  deriving (Eq)\n",
		},
		{
			name: "record declaration",
			input: "data User = User\n" +
				"  { userName :: Text\n" +
				"  , userAge :: Int\n" +
				"  }\n" +
				"  deriving (Show)\n",
		},
		{
			name: "multi-line signature",
			input: "validate :: Config\n" +
				"         -> Either Text Config\n" +
				"validate c = Right c\n",
		},
		{
			name:  "multiple names in signature",
			input: "x, y :: Int\n",
		},
		{
			name:  "operator signature",
			input: "(<+>) :: Doc -> Doc -> Doc\n",
		},
		{
			name: "class body",
			input: "class Pretty a where\n" +
				"  pretty :: a -> Text\n",
		},
		{
			name:  "end-of-line comments",
			input: "x :: Int  -- width in columns\nx = 3\n",
		},
		{
			name:  "comment between declarations",
			input: "x = 1\n\n-- The second group.\ny = 2\n",
		},
		{
			name:  "trailing comment at end of file",
			input: "main = pure ()\n\n-- footer\n",
		},
		{
			name:  "comment-only file",
			input: "-- just a note\n",
		},
		{
			name:  "export item comment",
			input: "module M\n  ( foo\n  , bar  -- doc\n  ) where\n",
		},
		{
			name:  "declaration pragma",
			input: "{-# INLINE hot #-}\nhot :: Int -> Int\nhot x = x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, _ := render(t, tt.input)
			if output != tt.input {
				t.Errorf("round-trip failed:\nwant: %q\ngot:  %q", tt.input, output)
				logFirstDifference(t, tt.input, output)
			}
		})
	}
}

func TestWriteNormalizes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single space before eol comment becomes two",
			input: "x = 1 -- c\n",
			want:  "x = 1  -- c\n",
		},
		{
			name:  "trailing whitespace dropped",
			input: "x = 1   \n",
			want:  "x = 1\n",
		},
		{
			name:  "blank lines at end of file dropped",
			input: "x = 1\n\n\n",
			want:  "x = 1\n",
		},
		{
			name:  "missing final newline added",
			input: "x = 1",
			want:  "x = 1\n",
		},
		{
			name:  "comma-trailing list becomes comma-leading",
			input: "module M\n  (foo,\n   bar) where\n",
			want:  "module M\n  ( foo\n  , bar\n  ) where\n",
		},
		{
			name:  "bare deriving parenthesized",
			input: "data C = C deriving Show\n",
			want:  "data C = C deriving (Show)\n",
		},
		{
			name:  "import list reshaped to comma-leading",
			input: "import Data.Text\n  (Text,\n   pack)\n",
			want:  "import Data.Text\n  ( Text\n  , pack\n  )\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, _ := render(t, tt.input)
			if output != tt.want {
				t.Errorf("want: %q\ngot:  %q", tt.want, output)
			}
		})
	}
}

func TestWriteLongLineAdvisory(t *testing.T) {
	long := "x = " + strings.Repeat("y", 90)
	output, diags := render(t, long+"\n")

	if !strings.Contains(output, long) {
		t.Fatal("long line was altered; the writer must never truncate")
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Kind != diag.KindLongLine {
		t.Errorf("kind: want %v, got %v", diag.KindLongLine, diags[0].Kind)
	}
	if diags[0].Severity != diag.SeverityAdvisory {
		t.Errorf("severity: want %v, got %v", diag.SeverityAdvisory, diags[0].Severity)
	}
}

func TestWriteUnderLimitNoAdvisory(t *testing.T) {
	_, diags := render(t, "x = 1\n")
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
}

func TestWriteEmptyInput(t *testing.T) {
	output, _ := render(t, "")
	if output != "" {
		t.Errorf("empty input: want %q, got %q", "", output)
	}
}

func TestWriteIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "messy export list",
			input: "module M\n  (foo,\n     bar) where\n",
		},
		{
			name:  "deep do block",
			input: "main = do\n    x <- fetch\n    pure x\n",
		},
		{
			name:  "block comment header",
			input: "{- header -}\nmodule M where\n",
		},
		{
			name:  "eol comment",
			input: "x = 1 -- c\n",
		},
		{
			name: "record with field comments",
			input: "data User = User\n" +
				"  { userName :: Text  -- ^ display name\n" +
				"  , userAge :: Int\n" +
				"  }\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once, _ := render(t, tt.input)
			twice, _ := render(t, once)
			if once != twice {
				t.Errorf("not idempotent:\nfirst:  %q\nsecond: %q", once, twice)
				logFirstDifference(t, once, twice)
			}
		})
	}
}

func TestWriteFullModule(t *testing.T) {
	input := `{-# LANGUAGE LambdaCase #-}
{-# LANGUAGE OverloadedStrings #-}

-- | Colour handling.
module Data.Color
  ( Color (..)
  , mkColor
  ) where

import qualified Data.Map.Strict as Map
import Data.Text (Text)

import App.Prelude

-- | A colour in sRGB space.
data Color = Color
  { colorRed :: !Int
  , colorGreen :: !Int
  , colorBlue :: !Int
  }
  deriving (Eq, Show)

mkColor :: Int -> Int -> Int -> Maybe Color
mkColor r g b
  | all valid [r, g, b] = Just (Color r g b)
  | otherwise = Nothing
  where
    valid x = x >= 0 && x <= 255
`

	output, _ := render(t, input)
	if output != input {
		t.Errorf("full module round-trip failed.\nInput length: %d\nOutput length: %d", len(input), len(output))
		logFirstDifference(t, input, output)
	}
}

// TestWritePadding exercises the transient alignment fields the passes
// set: the writer pads, the passes decide.
func TestWritePadding(t *testing.T) {
	t.Run("pragma close alignment", func(t *testing.T) {
		mod, _, err := parser.Parse("{-# LANGUAGE LambdaCase #-}\n{-# LANGUAGE OverloadedStrings #-}\n")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		for _, pr := range mod.Pragmas {
			pr.PadTo = 30
		}
		output, _ := Write(mod, config.DefaultConfig())
		want := "{-# LANGUAGE LambdaCase        #-}\n{-# LANGUAGE OverloadedStrings #-}\n"
		if output != want {
			t.Errorf("want: %q\ngot:  %q", want, output)
		}
	})

	t.Run("record field alignment", func(t *testing.T) {
		mod, _, err := parser.Parse("data User = User\n  { userName :: Text\n  , userAge :: Int\n  }\n")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		mod.Decls[0].(*cst.DataDecl).FieldNameWidth = 8
		output, _ := Write(mod, config.DefaultConfig())
		want := "data User = User\n  { userName :: Text\n  , userAge  :: Int\n  }\n"
		if output != want {
			t.Errorf("want: %q\ngot:  %q", want, output)
		}
	})

	t.Run("do binder alignment", func(t *testing.T) {
		mod, _, err := parser.Parse("main = do\n  x <- getLine\n  name <- getLine\n  pure ()\n")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		body := mod.Decls[0].(*cst.FuncBind).Body
		for _, ln := range body.Lines {
			ln.ArrowPad = 5
		}
		output, _ := Write(mod, config.DefaultConfig())
		want := "main = do\n  x    <- getLine\n  name <- getLine\n  pure ()\n"
		if output != want {
			t.Errorf("want: %q\ngot:  %q", want, output)
		}
	})
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
