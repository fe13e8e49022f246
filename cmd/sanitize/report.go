package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/inbucket/sanitizer/pkg/extension/event"
)

// writeReport renders a change report in the requested format: none, text or json.
func writeReport(w io.Writer, report *event.ChangeReport, format string) error {
	if report == nil {
		return nil
	}
	switch format {
	case "none":
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		for _, c := range report.RemovedTags {
			fmt.Fprintf(w, "removed tag <%s>: %v\n", c.Tag, c.Reason)
		}
		for _, c := range report.RemovedAttributes {
			fmt.Fprintf(w, "removed attribute %s.%s=%q: %v\n", c.Tag, c.Name, c.Value, c.Reason)
		}
		for _, c := range report.ModifiedAttributes {
			fmt.Fprintf(w, "rewrote attribute %s.%s=%q to %q\n", c.Tag, c.Name, c.Value, c.NewValue)
		}
		for _, c := range report.RemovedStyles {
			fmt.Fprintf(w, "removed style %s { %s: %s }: %v\n", c.Tag, c.Property, c.Value, c.Reason)
		}
		for _, c := range report.RemovedAtRules {
			fmt.Fprintf(w, "removed %s rule %q: %v\n", c.Kind, c.Name, c.Reason)
		}
		for _, c := range report.RemovedCSSClasses {
			fmt.Fprintf(w, "removed class %s.%s: %v\n", c.Tag, c.Class, c.Reason)
		}
		if report.RemovedComments > 0 {
			fmt.Fprintf(w, "removed %d comment(s)\n", report.RemovedComments)
		}
		return nil
	}
	return fmt.Errorf("unknown report format: %s", format)
}

func validReportFormat(format string) bool {
	return format == "none" || format == "text" || format == "json"
}
