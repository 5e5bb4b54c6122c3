package format

import (
	"strings"
	"testing"

	"github.com/donaldgifford/hsfmt/internal/diag"
)

func TestDerivingApply(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "two clauses split onto aligned lines",
			src:  "data T = T deriving stock (Eq, Show) deriving anyclass (FromJSON)\n",
			want: "data T\n" +
				"  = T\n" +
				"  deriving stock    (Eq, Show)\n" +
				"  deriving anyclass (FromJSON)\n",
		},
		{
			name: "bare class gains parentheses",
			src:  "data Flag = On | Off deriving Show\n",
			want: "data Flag = On | Off deriving (Show)\n",
		},
		{
			name: "single clause keeps its line",
			src:  "newtype Age = Age Int deriving newtype (Num, Eq)\n",
			want: "newtype Age = Age Int deriving newtype (Num, Eq)\n",
		},
		{
			name: "via clause renders verbatim",
			src:  "newtype Port = Port Int deriving (ToJSON) via Int\n",
			want: "newtype Port = Port Int deriving (ToJSON) via Int\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := formatWith(t, tt.src, &Deriving{})
			if got != tt.want {
				logFirstDifference(t, tt.want, got)
				t.Errorf("Apply() output mismatch\n--- want ---\n%s--- got ---\n%s", tt.want, got)
			}
		})
	}
}

func TestDerivingDuplicateClassAdvisory(t *testing.T) {
	src := "data T = T deriving (Eq) deriving stock (Eq)\n"

	_, diags := formatWith(t, src, &Deriving{})
	found := false
	for _, d := range diags {
		if d.Kind == diag.KindUnnecessaryDerive {
			found = true
			if !strings.Contains(d.Message, "Eq") {
				t.Errorf("advisory does not name the class: %s", d.Message)
			}
			if d.Severity != diag.SeverityAdvisory {
				t.Errorf("severity = %v, want advisory", d.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected an unnecessary-derive advisory, got %v", diags)
	}
}

func TestDerivingStrictnessAdvisory(t *testing.T) {
	src := "data P = P\n" +
		"  { strictField :: !Int\n" +
		"  , lazyField :: Bool\n" +
		"  }\n"

	_, diags := formatWith(t, src, &Deriving{})
	var hits []diag.Diagnostic
	for _, d := range diags {
		if d.Kind == diag.KindMissingStrictness {
			hits = append(hits, d)
		}
	}
	if len(hits) != 1 {
		t.Fatalf("expected one strictness advisory, got %d: %v", len(hits), diags)
	}
	if !strings.Contains(hits[0].Message, "lazyField") {
		t.Errorf("advisory does not name the field: %s", hits[0].Message)
	}
}

func TestDerivingNewtypeFieldExempt(t *testing.T) {
	src := "newtype Wrap = Wrap { unwrap :: Int }\n"

	_, diags := formatWith(t, src, &Deriving{})
	for _, d := range diags {
		if d.Kind == diag.KindMissingStrictness {
			t.Fatalf("newtype field should not be strictness checked, got %v", d)
		}
	}
}
