package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type styleCmd struct {
	baseURL string
}

func (*styleCmd) Name() string {
	return "style"
}

func (*styleCmd) Synopsis() string {
	return "check a single CSS declaration"
}

func (*styleCmd) Usage() string {
	return `style [flags] <property> <value>:
	print the verdict on a CSS declaration: keep, rewrite, or remove
	exit status will be 1 if the declaration would be removed, otherwise 0
`
}

func (s *styleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.baseURL, "base", "", "resolve relative URLs against this base URL")
}

func (s *styleCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usage("property and value required")
	}
	b, err := newBackend()
	if err != nil {
		return fatal("Couldn't build sanitizer", err)
	}

	verdict, err := b.SanitizeStyle(ctx, f.Arg(0), f.Arg(1), s.baseURL)
	if err != nil {
		return fatal("Sanitize failed", err)
	}
	if verdict.Op == "remove" {
		fmt.Printf("remove: %v\n", verdict.Reason)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s: %s: %s\n", verdict.Op, verdict.Property, verdict.Value)
	return subcommands.ExitSuccess
}
