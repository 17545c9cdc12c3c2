package resolve_test

import (
	"errors"
	"testing"

	"github.com/zerobounce/zerobounce-cli/internal/resolve"
)

var statuses = []string{"valid", "invalid", "catch-all", "spamtrap", "abuse", "do_not_mail", "unknown"}

func TestFuzzyMatch_ExactHit(t *testing.T) {
	name, err := resolve.FuzzyMatch("invalid", statuses)
	if err != nil {
		t.Fatal(err)
	}
	if name != "invalid" {
		t.Fatalf("expected invalid, got %q", name)
	}
}

func TestFuzzyMatch_NormalizesSeparators(t *testing.T) {
	for _, q := range []string{"Do Not Mail", "do-not-mail", "DO_NOT_MAIL"} {
		name, err := resolve.FuzzyMatch(q, statuses)
		if err != nil || name != "do_not_mail" {
			t.Errorf("FuzzyMatch(%q) = %q, %v", q, name, err)
		}
	}
	name, err := resolve.FuzzyMatch("catch all", statuses)
	if err != nil || name != "catch-all" {
		t.Errorf("FuzzyMatch(catch all) = %q, %v", name, err)
	}
}

func TestFuzzyMatch_PartialHit(t *testing.T) {
	name, err := resolve.FuzzyMatch("spam", statuses)
	if err != nil {
		t.Fatal(err)
	}
	if name != "spamtrap" {
		t.Fatalf("expected spamtrap, got %q", name)
	}
}

func TestFuzzyMatch_NoMatch(t *testing.T) {
	_, err := resolve.FuzzyMatch("zzz", statuses)
	var nm *resolve.NoMatchError
	if !errors.As(err, &nm) {
		t.Fatalf("expected NoMatchError, got %T: %v", err, err)
	}
}

func TestFuzzyMatch_Ambiguous(t *testing.T) {
	_, err := resolve.FuzzyMatch("role", []string{"role_based", "role_other"})
	var ae *resolve.AmbiguousError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AmbiguousError, got %T: %v", err, err)
	}
	if len(ae.Matches) != 2 {
		t.Fatalf("expected candidates in ambiguity error: %+v", ae)
	}
}

func TestFuzzyMatch_EmptyInputs(t *testing.T) {
	if _, err := resolve.FuzzyMatch("  ", statuses); !errors.Is(err, resolve.ErrEmptyQuery) {
		t.Errorf("empty query err = %v", err)
	}
	if _, err := resolve.FuzzyMatch("valid", nil); !errors.Is(err, resolve.ErrEmptyNames) {
		t.Errorf("empty names err = %v", err)
	}
}

func TestFuzzyMatchAll_Limit(t *testing.T) {
	matches := resolve.FuzzyMatchAll("a", statuses, 2)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %+v", matches)
	}
	if resolve.FuzzyMatchAll("a", statuses, 0) != nil {
		t.Error("limit 0 should return nil")
	}
}
