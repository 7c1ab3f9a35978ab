package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/c360/logdash/history"
	"github.com/c360/logdash/query"
	"github.com/c360/logdash/timerange"
	"github.com/c360/logdash/types"
)

func printEntry(w io.Writer, e types.LogEntry) {
	ts := "-"
	if !e.CreatedAt.IsZero() {
		ts = e.CreatedAt.Format(time.RFC3339Nano)
	}
	level := strings.ToUpper(e.Level)
	if level == "" {
		level = "-"
	}

	line := fmt.Sprintf("%s %-5s %s", ts, level, e.Message)
	if e.TraceID != "" {
		line += " trace=" + e.TraceID
	}
	_, _ = fmt.Fprintln(w, line)
}

func printResult(w io.Writer, r query.Result[types.LogEntry]) {
	if !r.OK() {
		_, _ = fmt.Fprintf(w, "error: %s\n", r.Error)
		return
	}

	total := max(r.Meta.TotalPages, 1)
	_, _ = fmt.Fprintf(w, "# page %d/%d, %d results in %s\n",
		r.Params.Page+1, total, len(r.Results), r.Duration.Round(time.Millisecond))
	for _, e := range r.Results {
		printEntry(w, e)
	}
	if r.Meta.HasNextPage {
		_, _ = fmt.Fprintf(w, "# more results: --page %d\n", r.Params.Page+1)
	}
}

func printHistory(w io.Writer, entries []history.Entry, now time.Time) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No recent queries")
		return
	}
	for _, e := range entries {
		status := "ok"
		if !e.OK {
			status = "fail"
		}
		_, _ = fmt.Fprintf(w, "%-16s %-4s %s\n", timerange.FormatRelative(e.Time(), now), status, e.Query)
	}
}
