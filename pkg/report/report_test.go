package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/loadwright/pacer"
)

func TestSummaryIncludesScenarioNameAndMetrics(t *testing.T) {
	stats := pacer.Statistics{
		Concurrency: 12,
		GoalTPS:     5000,
		ActualTPS:   4875.3,
		LatencyP50:  10 * time.Millisecond,
		LatencyP99:  45 * time.Millisecond,
		ErrorRate:   0.012,
	}

	out := Summary("checkout", stats, 30*time.Second)

	assert.Contains(t, out, "checkout")
	assert.Contains(t, out, "4,875.30")
	assert.Contains(t, out, "1.20%")
}

func TestFormatFloatAddsThousandsSeparator(t *testing.T) {
	assert.Equal(t, "999.00", formatFloat(999))
	assert.Equal(t, "1,234.56", formatFloat(1234.56))
	assert.Equal(t, "12,345.67", formatFloat(12345.67))
}

func TestFormatDurationHandlesZero(t *testing.T) {
	assert.Equal(t, "-", formatDuration(0))
	assert.True(t, strings.Contains(formatDuration(1500*time.Microsecond), "ms"))
}
