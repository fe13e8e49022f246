package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type cssCmd struct {
	baseURL string
	report  string
}

func (*cssCmd) Name() string {
	return "css"
}

func (*cssCmd) Synopsis() string {
	return "sanitize a stylesheet"
}

func (*cssCmd) Usage() string {
	return `css [flags] [file]:
	sanitize a stylesheet read from file, or stdin, writing the result to stdout
	and the change report to stderr
`
}

func (c *cssCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.baseURL, "base", "", "resolve relative URLs against this base URL")
	f.StringVar(&c.report, "report", "text", "change report format: none, text, or json")
}

func (c *cssCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if !validReportFormat(c.report) {
		return usage("unknown report format: " + c.report)
	}
	src, err := readInput(f.Arg(0))
	if err != nil {
		return fatal("Couldn't read input", err)
	}
	b, err := newBackend()
	if err != nil {
		return fatal("Couldn't build sanitizer", err)
	}

	result, err := b.SanitizeCSS(ctx, src, c.baseURL)
	if err != nil {
		return fatal("Sanitize failed", err)
	}

	fmt.Println(result.CSS)
	if err := writeReport(os.Stderr, result.Report, c.report); err != nil {
		return fatal("Error", err)
	}
	return subcommands.ExitSuccess
}
