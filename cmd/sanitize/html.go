package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/inbucket/sanitizer/pkg/rest/model"
)

type htmlCmd struct {
	baseURL  string
	document bool
	report   string
}

func (*htmlCmd) Name() string {
	return "html"
}

func (*htmlCmd) Synopsis() string {
	return "sanitize an HTML fragment or document"
}

func (*htmlCmd) Usage() string {
	return `html [flags] [file]:
	sanitize HTML read from file, or stdin, writing the result to stdout
	and the change report to stderr
`
}

func (h *htmlCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&h.baseURL, "base", "", "resolve relative URLs against this base URL")
	f.BoolVar(&h.document, "document", false, "input is a complete document, not a fragment")
	f.StringVar(&h.report, "report", "text", "change report format: none, text, or json")
}

func (h *htmlCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if !validReportFormat(h.report) {
		return usage("unknown report format: " + h.report)
	}
	src, err := readInput(f.Arg(0))
	if err != nil {
		return fatal("Couldn't read input", err)
	}
	b, err := newBackend()
	if err != nil {
		return fatal("Couldn't build sanitizer", err)
	}

	var result *model.JSONSanitizeResponseV1
	if h.document {
		result, err = b.SanitizeDocument(ctx, src, h.baseURL)
	} else {
		result, err = b.SanitizeHTML(ctx, src, h.baseURL)
	}
	if err != nil {
		return fatal("Sanitize failed", err)
	}

	fmt.Println(result.HTML)
	if err := writeReport(os.Stderr, result.Report, h.report); err != nil {
		return fatal("Error", err)
	}
	return subcommands.ExitSuccess
}
