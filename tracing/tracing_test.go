package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSpansWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "noop", "INTERNAL")
	if ctx == nil || span == nil {
		t.Fatal("expected a usable span before Init")
	}
	span.WithAttributes(map[string]string{"k": "v"})
	EndSpan(span, nil)

	var nilSpan *Span
	nilSpan.WithAttributes(map[string]string{"k": "v"})
	nilSpan.SetStatus(errors.New("ignored"))
	EndSpan(nil, nil)
}

func TestInitWritesSpansToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "traces.json")
	if err := Init("flowendpoint-test", "dev", out); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	_, span := StartSpan(context.Background(), "flight.lookup", "CLIENT")
	span.WithAttributes(map[string]string{"flight.type": "D"})
	EndSpan(span, errors.New("Flight API call failed"))

	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading trace output: %v", err)
	}
	for _, want := range []string{"flight.lookup", "flight.type", "Flight API call failed"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("trace output missing %q", want)
		}
	}
}

func TestInitInvalidOutput(t *testing.T) {
	if err := Init("svc", "dev", filepath.Join(t.TempDir(), "missing", "traces.json")); err == nil {
		t.Error("expected error for unwritable output path")
	}
}

func TestShutdownClosesTraceFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	if err := Init("svc", "dev", first); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	f := traceFile
	if f == nil {
		t.Fatal("expected Init to keep the trace file open")
	}

	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if traceFile != nil || provider != nil {
		t.Error("expected Shutdown to clear the provider and trace file")
	}
	if _, err := f.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("expected trace file to be closed, write returned %v", err)
	}

	second := filepath.Join(dir, "second.json")
	if err := Init("svc", "dev", second); err != nil {
		t.Fatalf("Init after Shutdown failed: %v", err)
	}
	_, span := StartSpan(context.Background(), "flight.prefetch", "INTERNAL")
	EndSpan(span, nil)
	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown failed: %v", err)
	}

	content, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("reading trace output: %v", err)
	}
	if !strings.Contains(string(content), "flight.prefetch") {
		t.Error("expected spans after re-Init to reach the new file")
	}
}

func TestInitWhileInstalledKeepsFirstOutput(t *testing.T) {
	dir := t.TempDir()
	if err := Init("svc", "dev", filepath.Join(dir, "first.json")); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Shutdown(context.Background())

	second := filepath.Join(dir, "second.json")
	if err := Init("svc", "dev", second); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	if _, err := os.Stat(second); !os.IsNotExist(err) {
		t.Error("expected second Init to leave the output untouched")
	}
}
