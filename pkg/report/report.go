// Package report formats a pacer run's final Statistics into a
// human-readable summary, printed at the end of a cmd/pacer invocation.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/loadwright/pacer"
)

// Print writes a formatted report of stats for scenario name to w.
func Print(w io.Writer, name string, stats pacer.Statistics, elapsed time.Duration) {
	fmt.Fprintln(w, "===============================================================================")
	fmt.Fprintf(w, "                         pacer run report: %s\n", name)
	fmt.Fprintln(w, "===============================================================================")
	fmt.Fprintf(w, "Elapsed:         %s\n", elapsed.Round(time.Millisecond))

	fmt.Fprintln(w, "-------------------------------------------------------------------------------")
	fmt.Fprintln(w, "1. THROUGHPUT")
	fmt.Fprintln(w, "-------------------------------------------------------------------------------")
	fmt.Fprintln(w, " Metric                          │ Value")
	fmt.Fprintln(w, " ─────────────────────────────── ┼ ────────────────────────────────────────────")
	fmt.Fprintf(w, " Goal TPS                        │ %s\n", formatFloat(float64(stats.GoalTPS)))
	fmt.Fprintf(w, " Actual TPS                      │ %s\n", formatFloat(stats.ActualTPS))
	fmt.Fprintf(w, " Concurrency                     │ %d\n", stats.Concurrency)
	fmt.Fprintf(w, " Error Rate                      │ %.2f%%\n", stats.ErrorRate*100)
	if stats.TPSLimited {
		fmt.Fprintln(w, " TPS-limited                     │ yes (target throughput ceiling detected)")
	}

	fmt.Fprintln(w, "\n-------------------------------------------------------------------------------")
	fmt.Fprintln(w, "2. LATENCY")
	fmt.Fprintln(w, "-------------------------------------------------------------------------------")
	fmt.Fprintln(w, " P50        │ P90        │ P95        │ P99")
	fmt.Fprintln(w, " ────────── ┼ ────────── ┼ ────────── ┼ ──────────")
	fmt.Fprintf(w, " %-10s │ %-10s │ %-10s │ %-10s\n",
		formatDuration(stats.LatencyP50), formatDuration(stats.LatencyP90),
		formatDuration(stats.LatencyP95), formatDuration(stats.LatencyP99))

	fmt.Fprintln(w, "===============================================================================")
}

// Summary returns Print's output as a string, for callers that want it
// rather than writing directly to a stream.
func Summary(name string, stats pacer.Statistics, elapsed time.Duration) string {
	var b strings.Builder
	Print(&b, name, stats, elapsed)
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Microsecond).String()
}

func formatFloat(f float64) string {
	if f < 1000 {
		return fmt.Sprintf("%.2f", f)
	}

	str := fmt.Sprintf("%.2f", f)
	parts := strings.Split(str, ".")
	integer, decimal := parts[0], parts[1]

	var result strings.Builder
	for i, c := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(c)
	}
	return result.String() + "." + decimal
}
