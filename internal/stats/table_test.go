package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Word", "Accuracy", "Tests"}
	rows := [][]string{
		{"perché", "97.5%", "12"},
		{"città", "8.0%", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Word   Accuracy Tests" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "perché    97.5%    12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "città      8.0%     3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	got := truncateCell("a very long chapter name", 10)
	if displayWidth(got) != 10 || got != "a very lo…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
