package util

import (
	"strings"
	"testing"
)

func TestFormatBytesWidth(t *testing.T) {
	for _, b := range []float64{0, 99, 100, 1536, 5 * 1024 * 1024, 98.9 * 1024 * 1024 * 1024} {
		got := formatBytes(b)
		if len(got) != 8 {
			t.Errorf("formatBytes(%v) = %q, want 8 chars", b, got)
		}
	}
	if got := formatBytes(1536); got != " 1.5 KiB" {
		t.Errorf("formatBytes(1536) = %q", got)
	}
}

func TestSnapshotDelta(t *testing.T) {
	prev := snapshot{joins: 1, msgsOut: 4, bytesOut: 100}
	cur := snapshot{joins: 2, leaves: 1, msgsOut: 10, msgsIn: 3, bytesOut: 600, bytesIn: 90}

	d := cur.sub(prev)
	if !d.active() {
		t.Fatalf("delta should be active")
	}
	line := d.String()
	for _, want := range []string{"Msgs: 6↑ 3↓", " 1+ ", " 1-"} {
		if !strings.Contains(line, want) {
			t.Errorf("report %q missing %q", line, want)
		}
	}
	if cur.sub(cur).active() {
		t.Errorf("zero delta reported as active")
	}
}
