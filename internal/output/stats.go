package output

import (
	"fmt"
	"sort"

	"github.com/Aman-CERP/pantry/internal/telemetry"
)

// Stats renders a telemetry report.
func (w *Writer) Stats(r *telemetry.Report) error {
	if w.format == FormatJSON {
		return w.json(r)
	}
	s := w.styles

	w.heading("searches since "+r.Since, int(r.Total))
	if r.Total == 0 {
		_, _ = fmt.Fprintln(w.out, s.Dim.Render("  nothing recorded yet"))
		return nil
	}

	stages := make([]string, 0, len(r.Stages))
	for stage := range r.Stages {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		_, _ = fmt.Fprintf(w.out, "  %-12s %6d  %s\n", stage, r.Stages[stage], s.Dim.Render(percent(r.Stages[stage], r.Total)))
	}

	_, _ = fmt.Fprintf(w.out, "\n%s\n", s.Header.Render("Latency"))
	for _, b := range telemetry.Buckets {
		if n := r.Latencies[b]; n > 0 {
			_, _ = fmt.Fprintf(w.out, "  %-12s %6d  %s\n", b, n, s.Dim.Render(percent(n, r.Total)))
		}
	}

	if len(r.TopTerms) > 0 {
		_, _ = fmt.Fprintf(w.out, "\n%s\n", s.Header.Render("Top ingredients"))
		for _, tc := range r.TopTerms {
			_, _ = fmt.Fprintf(w.out, "  %-20s %6d\n", s.Title.Render(tc.Term), tc.Count)
		}
	}

	if len(r.ZeroResults) > 0 {
		_, _ = fmt.Fprintf(w.out, "\n%s\n", s.Header.Render("Recent searches with no recipes"))
		for _, z := range r.ZeroResults {
			_, _ = fmt.Fprintf(w.out, "  %s  %s\n", s.Dim.Render(z.Timestamp.Format("2006-01-02 15:04")), z.Terms)
		}
	}
	return nil
}

func percent(n, total int64) string {
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("%.0f%%", float64(n)/float64(total)*100)
}
