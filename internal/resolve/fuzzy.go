// Package resolve maps loosely typed user input onto known names using fuzzy matching.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyNames = errors.New("no names to match against")
)

// Match is a fuzzy match result with score.
type Match struct {
	Name  string
	Score int
}

// AmbiguousError indicates multiple candidates matched equally well.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %s", m.Name)
		}
	}
	return b.String()
}

// NoMatchError reports a query that matched nothing.
type NoMatchError struct {
	Query string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no match found for %q", e.Query)
}

type lowerSource []string

func (s lowerSource) String(i int) string { return normalize(s[i]) }
func (s lowerSource) Len() int            { return len(s) }

// normalize folds case and treats '-', '_' and spaces alike, so "do not mail",
// "do-not-mail" and "do_not_mail" compare equal.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ':
			return '_'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// FuzzyMatch returns the name best matching query.
//
// An exact match (after normalization) wins outright. Otherwise the top fuzzy
// result is returned unless the top two tie, which yields *AmbiguousError.
func FuzzyMatch(query string, names []string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if len(names) == 0 {
		return "", ErrEmptyNames
	}

	want := normalize(query)
	for _, name := range names {
		if normalize(name) == want {
			return name, nil
		}
	}

	results := fuzzy.FindFrom(want, lowerSource(names))
	if len(results) == 0 {
		return "", &NoMatchError{Query: query}
	}
	if len(results) > 1 && results[0].Score == results[1].Score {
		return "", &AmbiguousError{Query: query, Matches: buildMatches(names, results, 5)}
	}
	return names[results[0].Index], nil
}

// FuzzyMatchAll returns up to limit matches ranked by score (best first).
func FuzzyMatchAll(query string, names []string, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(names) == 0 || limit <= 0 {
		return nil
	}
	return buildMatches(names, fuzzy.FindFrom(normalize(query), lowerSource(names)), limit)
}

func buildMatches(names []string, results fuzzy.Matches, limit int) []Match {
	if len(results) == 0 {
		return nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{Name: names[r.Index], Score: r.Score}
	}
	return matches
}
