package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/google/subcommands"
)

type policyCmd struct{}

func (*policyCmd) Name() string {
	return "policy"
}

func (*policyCmd) Synopsis() string {
	return "output the effective policy"
}

func (*policyCmd) Usage() string {
	return `policy:
	output the effective policy as JSON
`
}

func (p *policyCmd) SetFlags(f *flag.FlagSet) {}

func (p *policyCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	b, err := newBackend()
	if err != nil {
		return fatal("Couldn't build sanitizer", err)
	}
	policy, err := b.Policy(ctx)
	if err != nil {
		return fatal("Policy call failed", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(policy); err != nil {
		return fatal("Error", err)
	}
	return subcommands.ExitSuccess
}
