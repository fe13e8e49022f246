package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type mailCmd struct {
	output string
	report string
}

func (*mailCmd) Name() string {
	return "mail"
}

func (*mailCmd) Synopsis() string {
	return "sanitize the body of a MIME message"
}

func (*mailCmd) Usage() string {
	return `mail [flags] [file]:
	sanitize the HTML body of a MIME message read from file, or stdin
`
}

func (m *mailCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.output, "output", "html", "output format: html, text, or json")
	f.StringVar(&m.report, "report", "text", "change report format: none, text, or json")
}

func (m *mailCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if !validReportFormat(m.report) {
		return usage("unknown report format: " + m.report)
	}
	switch m.output {
	case "html", "text", "json":
	default:
		return usage("unknown output type: " + m.output)
	}
	r, err := input(f.Arg(0))
	if err != nil {
		return fatal("Couldn't read input", err)
	}
	defer r.Close()
	b, err := newBackend()
	if err != nil {
		return fatal("Couldn't build sanitizer", err)
	}

	result, err := b.SanitizeMessage(ctx, r)
	if err != nil {
		return fatal("Sanitize failed", err)
	}

	switch m.output {
	case "html":
		fmt.Println(result.HTML)
	case "text":
		fmt.Println(result.Text)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fatal("Error", err)
		}
		return subcommands.ExitSuccess
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if err := writeReport(os.Stderr, result.Report, m.report); err != nil {
		return fatal("Error", err)
	}
	return subcommands.ExitSuccess
}
