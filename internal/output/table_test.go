package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/blackwell-systems/apptraffic/internal/model"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00 B"},
		{512, "512.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
	}
	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(2048); got != "2.00 KB/s" {
		t.Errorf("FormatRate(2048) = %q, want 2.00 KB/s", got)
	}
	if got := FormatRate(100); got != "100.00 B/s" {
		t.Errorf("FormatRate(100) = %q, want 100.00 B/s", got)
	}
}

func TestSortByTraffic_OrdersDescending(t *testing.T) {
	totals := map[string]model.Totals{
		"Low":  {Sent: 1, Recv: 1},
		"High": {Sent: 500, Recv: 500},
		"Mid":  {Sent: 50, Recv: 50},
	}

	rows := SortByTraffic(totals)

	want := []string{"High", "Mid", "Low"}
	for i, name := range want {
		if rows[i].App != name {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].App, name)
		}
	}
}

func TestSortByTraffic_TiesBrokenByName(t *testing.T) {
	totals := map[string]model.Totals{
		"Beta":  {Sent: 10},
		"Alpha": {Sent: 10},
	}
	rows := SortByTraffic(totals)
	if rows[0].App != "Alpha" || rows[1].App != "Beta" {
		t.Errorf("tie order = [%s %s], want [Alpha Beta]", rows[0].App, rows[1].App)
	}
}

func TestRenderUsageTable_IncludesTotalFooter(t *testing.T) {
	totals := map[string]model.Totals{
		"Chrome": {Sent: 1000, Recv: 2000, Connections: 3},
		"Slack":  {Sent: 500, Recv: 500, Connections: 1},
	}

	out := RenderUsageTable(totals)

	if !strings.Contains(out, "Chrome") || !strings.Contains(out, "Slack") {
		t.Errorf("table missing app rows:\n%s", out)
	}
	if !strings.Contains(out, "TOTAL") {
		t.Errorf("table missing TOTAL footer:\n%s", out)
	}
	// 1000+500 sent, 2000+500 recv → total traffic 4000 bytes.
	if !strings.Contains(out, "3.91 KB") {
		t.Errorf("TOTAL footer missing combined traffic:\n%s", out)
	}
}

func TestRenderUsageTable_Empty(t *testing.T) {
	out := RenderUsageTable(nil)
	if !strings.Contains(out, "No data available") {
		t.Errorf("empty table output = %q", out)
	}
}

func TestRenderRateTable_HidesIdleApps(t *testing.T) {
	rates := map[string]model.Usage{
		"Busy": {Sent: 100, Recv: 100, Connections: 2},
		"Idle": {},
	}

	out := RenderRateTable(rates)

	if !strings.Contains(out, "Busy") {
		t.Errorf("rate table missing active app:\n%s", out)
	}
	if strings.Contains(out, "Idle") {
		t.Errorf("rate table shows idle app:\n%s", out)
	}
}

func TestSpinner_NonTTYPrintsOnce(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("Working")
	s.SetWriter(&buf)

	s.Start()
	s.StopWithMessage("done")

	out := buf.String()
	if !strings.Contains(out, "Working...") {
		t.Errorf("spinner output = %q, want single message print", out)
	}
	if !strings.Contains(out, "done") {
		t.Errorf("spinner output = %q, want final message", out)
	}
}
