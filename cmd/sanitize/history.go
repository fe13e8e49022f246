package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/inbucket/sanitizer/pkg/rest/client"
)

type historyCmd struct {
	clear  bool
	report string
}

func (*historyCmd) Name() string {
	return "history"
}

func (*historyCmd) Synopsis() string {
	return "output change reports remembered by the server"
}

func (*historyCmd) Usage() string {
	return `history [flags]:
	output the change reports remembered by the server's monitor, oldest first;
	requires -server
`
}

func (h *historyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&h.clear, "clear", false, "clear the history after output")
	f.StringVar(&h.report, "report", "text", "change report format: text, or json")
}

func (h *historyCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if *server == "" {
		return usage("-server required")
	}
	if !validReportFormat(h.report) {
		return usage("unknown report format: " + h.report)
	}
	c, err := client.New(*server)
	if err != nil {
		return fatal("Couldn't build client", err)
	}

	events, err := c.MonitorHistory(ctx)
	if err != nil {
		return fatal("History REST call failed", err)
	}
	for _, e := range events {
		fmt.Printf("#%d %s\n", e.Seq, e.Time.Format("2006-01-02 15:04:05"))
		if err := writeReport(os.Stdout, e.Report, h.report); err != nil {
			return fatal("Error", err)
		}
	}
	if h.clear {
		if err := c.ClearMonitorHistory(ctx); err != nil {
			return fatal("Clear REST call failed", err)
		}
	}
	return subcommands.ExitSuccess
}
