package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"anistrm/internal/history"
	"anistrm/internal/ipc"
	"anistrm/internal/preflight"
)

func TestStatusLineRender(t *testing.T) {
	line := statusLine{"Daemon", healthDegraded, "Not running"}
	if got, want := line.render(10, false), "  Daemon:    [WARN] Not running"; got != want {
		t.Fatalf("render mismatch\n got: %q\nwant: %q", got, want)
	}

	colored := statusLine{"Daemon", healthGood, "Running"}.render(10, true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green line, got %q", colored)
	}
}

func TestRunHealthGrades(t *testing.T) {
	cases := map[history.Status]health{
		history.StatusSucceeded:   healthGood,
		history.StatusRunning:     healthNeutral,
		history.StatusInterrupted: healthDegraded,
		history.StatusFailed:      healthBroken,
	}
	for status, want := range cases {
		if got := runHealth(status); got != want {
			t.Fatalf("runHealth(%s) = %d, want %d", status, got, want)
		}
	}
}

func TestCheckLines(t *testing.T) {
	lines := checkLines([]preflight.Result{
		{Name: "Strm directory", Passed: true, Detail: "read/write ok"},
		{Name: "RSS feed", Passed: false, Detail: "status 502"},
	})
	if len(lines) != 2 || lines[0].health != healthGood || lines[1].health != healthBroken {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestLastRunLine(t *testing.T) {
	if line := lastRunLine(nil).render(10, false); !strings.Contains(line, "[INFO] None") {
		t.Fatalf("expected placeholder for missing run, got %q", line)
	}

	started := time.Date(2024, 10, 5, 22, 0, 0, 0, time.UTC)
	ok := lastRunLine(&ipc.RunInfo{Mode: "full", Status: "succeeded", StartedAt: started, Created: 4}).render(10, false)
	if !strings.Contains(ok, "[OK] full succeeded") || !strings.Contains(ok, "created 4") {
		t.Fatalf("unexpected success line %q", ok)
	}

	failed := lastRunLine(&ipc.RunInfo{Mode: "incremental", Status: "failed", StartedAt: started, ErrorMessage: "feed returned 500"}).render(10, false)
	if !strings.Contains(failed, "[FAIL]") || !strings.HasSuffix(failed, ": feed returned 500") {
		t.Fatalf("unexpected failure line %q", failed)
	}
}

func TestStatusPrinterSeparatesSections(t *testing.T) {
	var buf bytes.Buffer
	p := newStatusPrinter(&buf)
	p.section("Daemon", statusLine{"Daemon", healthGood, "Running"})
	p.section("Checks", statusLine{"Strm directory", healthGood, "ok"}, statusLine{"Feed", healthBroken, ""})

	want := "Daemon\n------\n  Daemon:    [OK] Running\n\n" +
		"Checks\n------\n  Strm directory: [OK] ok\n  Feed:           [FAIL]\n"
	if buf.String() != want {
		t.Fatalf("unexpected output\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(fileColumns, [][]string{{"2024-10-05 22:00:00", "abcd1234"}})
	for _, want := range []string{"Created", "Title", "abcd1234"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected trailing newline")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0f8b3c2e-1111-2222-3333-444455556666"); got != "0f8b3c2e" {
		t.Fatalf("unexpected short id %q", got)
	}
	if got := shortID(""); got != "-" {
		t.Fatalf("expected placeholder for empty id, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
