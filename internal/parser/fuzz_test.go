package parser

import "testing"

func FuzzParse(f *testing.F) {
	// Seed with representative Haskell constructs.
	seeds := []string{
		"module M where\n",
		"module M (a, b, C (..)) where\n",
		"{-# LANGUAGE OverloadedStrings #-}\nmodule M where\n",
		"import qualified Data.Map as M\n",
		"import Prelude hiding (lookup)\n",
		"data Color = Red | Green | Blue deriving (Eq, Show)\n",
		"data User = User\n  { name :: Text\n  , age  :: !Int\n  }\n",
		"newtype Age = Age Int\n  deriving newtype (Num)\n",
		"f :: Ord a => a -> a -> Bool\n",
		"f x = case x of\n  0 -> []\n  _ -> [x]\n",
		"main = do\n  ln <- getLine\n  putStrLn ln\n",
		"g n\n  | n < 0 = -n\n  | otherwise = n\n",
		"h = x\n  where\n    x = 1\n",
		"class Eq a => Ord' a where\n  cmp :: a -> a -> Ordering\n",
		"instance Show Color where\n  show Red = \"red\"\n",
		"{-# INLINE f #-}\nf = id\n",
		"x = \"string with \\\" escape\"\n",
		"y = 'c'\n",
		"z = 0x1F + 2.5e-3\n",
		"-- comment only\n",
		"{- block\n   comment -}\nv = ()\n",
		"\n",
		"",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		// The parser must never panic; a fatal error must never
		// come with a partial tree.
		mod, _, err := Parse(input)
		if err != nil && mod != nil {
			t.Error("fatal error returned alongside a tree")
		}
	})
}
