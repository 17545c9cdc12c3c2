// internal/iocontext/io_test.go
package iocontext

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDefaultIO(t *testing.T) {
	io := DefaultIO()
	if io.Out == nil || io.ErrOut == nil || io.In == nil {
		t.Error("DefaultIO should return non-nil streams")
	}
}

func TestWithIO(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	io := &IO{Out: out, ErrOut: errOut}
	ctx := WithIO(context.Background(), io)

	got := GetIO(ctx)
	if got.Out != out {
		t.Error("GetIO should return the IO set with WithIO")
	}
}

func TestGetIO_DefaultsWhenNotSet(t *testing.T) {
	ctx := context.Background()
	io := GetIO(ctx)
	if io == nil {
		t.Error("GetIO should return default IO when not set")
	}
}

func TestReadLines(t *testing.T) {
	io := &IO{In: strings.NewReader("a@example.com\n\n  # comment\n b@example.com \r\n")}
	lines, err := io.ReadLines()
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "a@example.com" || lines[1] != "b@example.com" {
		t.Fatalf("ReadLines = %q", lines)
	}

	if lines, err := (&IO{}).ReadLines(); err != nil || lines != nil {
		t.Fatalf("nil input = %q, %v", lines, err)
	}
}
