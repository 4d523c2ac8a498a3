package charts

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/kmorwood/drawsim-companion/internal/storage"
)

func TestRenderSuccessRateHistory(t *testing.T) {
	records := []*storage.ResultRecord{
		{ID: 2, SuccessRate: 80, BrickRate: 20, CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)},
		{ID: 1, SuccessRate: 60, BrickRate: 40, CreatedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := RenderSuccessRateHistory(records, &buf); err != nil {
		t.Fatalf("RenderSuccessRateHistory: %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "Success rate") || !strings.Contains(html, "Brick rate") {
		t.Error("Rendered chart missing series names")
	}
	// Oldest record should come first on the axis.
	if strings.Index(html, "08-29 10:00:00") > strings.Index(html, "08-30 10:00:00") {
		t.Error("Expected records ordered oldest first")
	}
}

func TestRenderSuccessRateHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSuccessRateHistory(nil, &buf); err == nil {
		t.Fatal("Expected error for empty record set")
	}
}
