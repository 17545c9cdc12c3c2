// Package filter runs jq expressions (via gojq) over command output.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression fixes shell-escaped operators in jq expressions.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.TrimSpace(strings.ReplaceAll(expr, `\!`, `!`))
}

// Query is a compiled jq expression.
type Query struct {
	expr string
	code *gojq.Code
}

// Compile parses and compiles expr. An empty expression yields an identity query.
func Compile(expr string) (*Query, error) {
	expr = NormalizeExpression(expr)
	if expr == "" {
		return &Query{}, nil
	}
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return &Query{expr: expr, code: code}, nil
}

// Run applies the query to data. A single result is returned bare; several
// results are returned as a slice.
//
// List output is wrapped as {"items": [...]}; a query written against the bare
// array (".[] | ...") is retried against the items.
func (q *Query) Run(data any) (any, error) {
	if q.code == nil {
		return data, nil
	}
	results, err := run(q.code, data)
	if err != nil {
		if items, ok := itemsFallback(data, q.expr, err); ok {
			if retried, retryErr := run(q.code, items); retryErr == nil {
				results, err = retried, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func run(code *gojq.Code, data any) ([]any, error) {
	iter := code.Run(data)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func itemsFallback(data any, expr string, runErr error) (any, bool) {
	if !looksLikeRootArrayQuery(expr) || !strings.Contains(runErr.Error(), "expected an object but got: array") {
		return nil, false
	}
	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	items, ok := m["items"].([]any)
	return items, ok
}

func looksLikeRootArrayQuery(expr string) bool {
	return strings.HasPrefix(expr, ".[]") || strings.HasPrefix(expr, "[.[]") || strings.HasPrefix(expr, "(.[]")
}

// Apply compiles expression and runs it against data.
func Apply(data any, expression string) (any, error) {
	q, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return q.Run(data)
}

// ApplyFromJSON decodes jsonData and applies expression to it.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return Apply(data, expression)
}
