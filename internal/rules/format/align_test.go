package format

import (
	"testing"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/formatter"
	"github.com/donaldgifford/hsfmt/internal/parser"
)

func TestAlignApply(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "long export list breaks open",
			src: "module Data.Pipeline.Stage (runStage, stageName, StageResult (..), StageError (..), mkStage) where\n",
			want: "module Data.Pipeline.Stage\n" +
				"  ( runStage\n" +
				"  , stageName\n" +
				"  , StageResult (..)\n" +
				"  , StageError (..)\n" +
				"  , mkStage\n" +
				"  ) where\n",
		},
		{
			name: "short multi-line export list keeps its shape",
			src: "module Tiny\n" +
				"  ( only\n" +
				"  , other\n" +
				"  ) where\n",
			want: "module Tiny\n" +
				"  ( only\n" +
				"  , other\n" +
				"  ) where\n",
		},
		{
			name: "lone multi-line export collapses",
			src: "module Tiny\n" +
				"  ( runStage\n" +
				"  ) where\n",
			want: "module Tiny (runStage) where\n",
		},
		{
			name: "long import list breaks open",
			src: "import Data.Map.Strict (alter, delete, empty, filterWithKey, foldrWithKey, insertWith, member)\n",
			want: "import Data.Map.Strict\n" +
				"  ( alter\n" +
				"  , delete\n" +
				"  , empty\n" +
				"  , filterWithKey\n" +
				"  , foldrWithKey\n" +
				"  , insertWith\n" +
				"  , member\n" +
				"  )\n",
		},
		{
			name: "lone multi-line import collapses",
			src: "import Data.IORef\n" +
				"  ( newIORef\n" +
				"  )\n",
			want: "import Data.IORef (newIORef)\n",
		},
		{
			name: "comment pins an import list open",
			src: "import Data.Maybe\n" +
				"  ( fromMaybe  -- total\n" +
				"  )\n",
			want: "import Data.Maybe\n" +
				"  ( fromMaybe  -- total\n" +
				"  )\n",
		},
		{
			name: "long signature breaks at arrows",
			src: "processBatch :: MonadIO m => BatchSize -> (Item -> m Result) -> [Item] -> m (Vector Result)\n",
			want: "processBatch :: MonadIO m\n" +
				"             => BatchSize\n" +
				"             -> (Item -> m Result)\n" +
				"             -> [Item]\n" +
				"             -> m (Vector Result)\n",
		},
		{
			name: "multi-line signature keeps arrow alignment",
			src: "render ::\n" +
				"  Doc -> Text\n",
			want: "render :: Doc\n" +
				"       -> Text\n",
		},
		{
			name: "lone-segment signature collapses",
			src: "mkName ::\n" +
				"  Text\n",
			want: "mkName :: Text\n",
		},
		{
			name: "wide record keeps fields apart and aligns them",
			src: "data Config = Config\n" +
				"  { verbose :: !Bool\n" +
				"  , jobs :: !Int\n" +
				"  , searchPath :: ![FilePath]\n" +
				"  }\n",
			want: "data Config = Config\n" +
				"  { verbose    :: !Bool\n" +
				"  , jobs       :: !Int\n" +
				"  , searchPath :: ![FilePath]\n" +
				"  }\n",
		},
		{
			name: "small record rolls up",
			src: "data Pair = Pair\n" +
				"  { first :: Int\n" +
				"  }\n",
			want: "data Pair = Pair { first :: Int }\n",
		},
		{
			name: "long sum type breaks into alternatives",
			src: "data Event = Started ThreadId Timestamp | Progressed ThreadId Percent Timestamp | Finished ThreadId ExitStatus\n",
			want: "data Event\n" +
				"  = Started ThreadId Timestamp\n" +
				"  | Progressed ThreadId Percent Timestamp\n" +
				"  | Finished ThreadId ExitStatus\n",
		},
		{
			name: "short data line is left alone",
			src:  "data Flag = On | Off deriving (Eq, Show)\n",
			want: "data Flag = On | Off deriving (Eq, Show)\n",
		},
		{
			name: "do bindings share an arrow column",
			src: "main = do\n" +
				"  short <- getLine\n" +
				"  longerName <- getContents\n" +
				"  putStrLn short\n",
			want: "main = do\n" +
				"  short      <- getLine\n" +
				"  longerName <- getContents\n" +
				"  putStrLn short\n",
		},
		{
			name: "blank line splits arrow groups",
			src: "run = do\n" +
				"  a   <- f\n" +
				"\n" +
				"  bb <- g\n" +
				"  c <- h\n",
			want: "run = do\n" +
				"  a   <- f\n" +
				"\n" +
				"  bb <- g\n" +
				"  c  <- h\n",
		},
		{
			name: "chain continuations line up under the operator",
			src: "parseColor = Color <$> parseRed\n" +
				"  <*> parseGreen\n" +
				"  <*> parseBlue\n",
			want: "parseColor = Color <$> parseRed\n" +
				"                   <*> parseGreen\n" +
				"                   <*> parseBlue\n",
		},
		{
			name: "leading operator hang is left alone",
			src: "total = sum\n" +
				"  <$> readings\n",
			want: "total = sum\n" +
				"  <$> readings\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := formatWith(t, tt.src, &Align{})
			if got != tt.want {
				logFirstDifference(t, tt.want, got)
				t.Errorf("Apply() output mismatch\n--- want ---\n%s--- got ---\n%s", tt.want, got)
			}
		})
	}
}

func TestAlignGatesOff(t *testing.T) {
	src := "run = do\n" +
		"  bb <- g\n" +
		"  c <- h\n"

	cfg := config.DefaultConfig()
	cfg.Format.Align.DoBindings = false

	mod, _, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	mod, _ = formatter.Run(mod, cfg, []formatter.Pass{&Align{}})
	got, _ := formatter.Write(mod, cfg)
	if got != src {
		logFirstDifference(t, src, got)
		t.Errorf("Apply() with do-binding alignment off changed the source\n--- want ---\n%s--- got ---\n%s", src, got)
	}
}

func TestAlignIdempotent(t *testing.T) {
	src := "module Wide (alpha, beta, gamma, delta, epsilon, zeta, eta, theta, iota, kappa, lambdaName) where\n" +
		"\n" +
		"build = do\n" +
		"  x <- ask\n" +
		"  settings <- load\n" +
		"  pure (x, settings)\n"

	once, _ := formatWith(t, src, &Align{})
	twice, _ := formatWith(t, once, &Align{})
	if once != twice {
		logFirstDifference(t, once, twice)
		t.Errorf("second run changed the output\n--- first ---\n%s--- second ---\n%s", once, twice)
	}
}
