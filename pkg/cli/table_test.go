package cli

import (
	"bufio"
	"os"
	"strings"
	"testing"
)

func TestVisualLen_StripsANSI(t *testing.T) {
	if got := visualLen("\x1b[32mok\x1b[0m"); got != 2 {
		t.Errorf("visualLen with ANSI codes = %d, want 2", got)
	}
}

func TestVisualLen_PlainString(t *testing.T) {
	if got := visualLen("hello"); got != 5 {
		t.Errorf("visualLen(%q) = %d, want 5", "hello", got)
	}
}

func captureStdout(t *testing.T, fn func()) []string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	w.Close()

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestTable_FlushEmptyProducesNoOutput(t *testing.T) {
	lines := captureStdout(t, func() {
		NewTable("CHECK", "STATUS").Flush()
	})
	if len(lines) != 0 {
		t.Fatalf("expected no output for an empty table, got %v", lines)
	}
}

func TestTable_FlushAlignsColumns(t *testing.T) {
	lines := captureStdout(t, func() {
		tbl := NewTable("CHECK", "STATUS")
		tbl.Row("postgres", "ok")
		tbl.Row("redis-ping", "critical")
		tbl.Flush()
	})
	if len(lines) != 4 {
		t.Fatalf("expected header, divider, and 2 rows, got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "CHECK") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "-----") {
		t.Errorf("divider line = %q", lines[1])
	}
	// STATUS column must widen to fit "critical", and both value rows
	// should start their second column at the same offset.
	statusCol := len("redis-ping") + 2
	if len(lines[3]) < statusCol || !strings.HasPrefix(lines[3][statusCol:], "critical") {
		t.Errorf("row not aligned to widened STATUS column: %q", lines[3])
	}
}

func TestTable_FlushHandlesANSIWidthCorrectly(t *testing.T) {
	lines := captureStdout(t, func() {
		tbl := NewTable("CHECK", "STATUS")
		tbl.Row("postgres", Green("ok"))
		tbl.Flush()
	})
	if len(lines) != 3 {
		t.Fatalf("expected header, divider, and 1 row, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[2], Green("ok")) {
		t.Errorf("expected colorized cell preserved in output: %q", lines[2])
	}
}
