package format

import (
	"strings"
	"testing"

	"github.com/donaldgifford/hsfmt/internal/diag"
)

func TestNamingApply(t *testing.T) {
	src := "module M where\n" +
		"\n" +
		"parse_config :: Int\n" +
		"parse_config = 1\n"

	got, diags := formatWith(t, src, &Naming{})
	if got != src {
		logFirstDifference(t, src, got)
		t.Errorf("naming pass changed the source\n--- want ---\n%s--- got ---\n%s", src, got)
	}
	found := false
	for _, d := range diags {
		if d.Kind == diag.KindNamingViolation && strings.Contains(d.Message, "parse_config") {
			found = true
			if d.Severity != diag.SeverityAdvisory {
				t.Errorf("severity = %v, want advisory", d.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected a naming violation for parse_config, got %v", diags)
	}
}

func TestNamingOperatorAdvisory(t *testing.T) {
	src := "module M where\n" +
		"\n" +
		"(<+>) :: Int -> Int -> Int\n" +
		"a <+> b = a + b\n"

	_, diags := formatWith(t, src, &Naming{})
	var ops []diag.Diagnostic
	for _, d := range diags {
		if d.Kind == diag.KindOperatorDefinition {
			ops = append(ops, d)
		}
	}
	if len(ops) != 1 {
		t.Fatalf("expected one operator advisory, got %d: %v", len(ops), diags)
	}
	if !strings.Contains(ops[0].Message, "<+>") {
		t.Errorf("advisory does not name the operator: %s", ops[0].Message)
	}
}
