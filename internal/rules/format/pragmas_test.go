package format

import "testing"

func TestPragmasApply(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "language pragmas sort and align",
			src: "{-# LANGUAGE TypeApplications #-}\n" +
				"{-# LANGUAGE DeriveGeneric #-}\n" +
				"{-# LANGUAGE OverloadedStrings #-}\n" +
				"module M where\n",
			want: "{-# LANGUAGE DeriveGeneric     #-}\n" +
				"{-# LANGUAGE OverloadedStrings #-}\n" +
				"{-# LANGUAGE TypeApplications  #-}\n" +
				"module M where\n",
		},
		{
			name: "options block precedes language block",
			src: "{-# LANGUAGE LambdaCase #-}\n" +
				"{-# OPTIONS_GHC -Wall #-}\n" +
				"module M where\n",
			want: "{-# OPTIONS_GHC -Wall #-}\n" +
				"\n" +
				"{-# LANGUAGE LambdaCase #-}\n" +
				"module M where\n",
		},
		{
			name: "inline pragma pinned after its equations",
			src: "module M where\n" +
				"\n" +
				"{-# INLINE double #-}\n" +
				"\n" +
				"half :: Int -> Int\n" +
				"half x = div x 2\n" +
				"\n" +
				"double :: Int -> Int\n" +
				"double x = x + x\n",
			want: "module M where\n" +
				"\n" +
				"half :: Int -> Int\n" +
				"half x = div x 2\n" +
				"\n" +
				"double :: Int -> Int\n" +
				"double x = x + x\n" +
				"{-# INLINE double #-}\n",
		},
		{
			name: "pragma for an unknown binder stays put",
			src: "module M where\n" +
				"\n" +
				"{-# SPECIALIZE hash :: Text -> Int #-}\n" +
				"\n" +
				"main = pure ()\n",
			want: "module M where\n" +
				"\n" +
				"{-# SPECIALIZE hash :: Text -> Int #-}\n" +
				"\n" +
				"main = pure ()\n",
		},
		{
			name: "pinned pragma sits tight under its declaration",
			src: "module M where\n" +
				"\n" +
				"fuse xs = concat xs\n" +
				"\n" +
				"{-# INLINE fuse #-}\n",
			want: "module M where\n" +
				"\n" +
				"fuse xs = concat xs\n" +
				"{-# INLINE fuse #-}\n",
		},
		{
			name: "comment travels with a moving pragma",
			src: "module M where\n" +
				"\n" +
				"-- hot path\n" +
				"{-# INLINE step #-}\n" +
				"\n" +
				"step :: Int -> Int\n" +
				"step n = n + 1\n",
			want: "module M where\n" +
				"\n" +
				"step :: Int -> Int\n" +
				"step n = n + 1\n" +
				"-- hot path\n" +
				"{-# INLINE step #-}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := formatWith(t, tt.src, &Pragmas{})
			if got != tt.want {
				logFirstDifference(t, tt.want, got)
				t.Errorf("Apply() output mismatch\n--- want ---\n%s--- got ---\n%s", tt.want, got)
			}
		})
	}
}

func TestPragmasIdempotent(t *testing.T) {
	src := "{-# LANGUAGE OverloadedStrings #-}\n" +
		"{-# LANGUAGE DeriveFunctor #-}\n" +
		"{-# OPTIONS_GHC -Wall #-}\n" +
		"module M where\n" +
		"\n" +
		"{-# INLINE bump #-}\n" +
		"bump :: Int -> Int\n" +
		"bump n = n + 1\n"

	once, _ := formatWith(t, src, &Pragmas{})
	twice, _ := formatWith(t, once, &Pragmas{})
	if once != twice {
		logFirstDifference(t, once, twice)
		t.Errorf("second run changed the output\n--- first ---\n%s--- second ---\n%s", once, twice)
	}
}
