package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"
)

var (
	version = "dev"
	commit  = "none"
)

type CLI struct {
	List       ListCmd       `cmd:"" help:"List services registered with the bridge"`
	New        NewCmd        `cmd:"" help:"Create a provider definition interactively"`
	Edit       EditCmd       `cmd:"" help:"Open a provider definition in your editor"`
	Register   RegisterCmd   `cmd:"" help:"Register a provider definition with the bridge"`
	Unregister UnregisterCmd `cmd:"" help:"Remove a service from the bridge"`
	Spawn      SpawnCmd      `cmd:"" help:"Start a registered service and wait until it is ready"`
	Unspawn    UnspawnCmd    `cmd:"" help:"Stop a running service"`
	Tools      ToolsCmd      `cmd:"" help:"List the tools a service exposes"`
	Call       CallCmd       `cmd:"" help:"Invoke a tool on a service"`
	Ping       PingCmd       `cmd:"" help:"Check that a service is active and ready"`
	Logs       LogsCmd       `cmd:"" help:"Show recent bridge log lines"`
	Reset      ResetCmd      `cmd:"" help:"Stop every service and clear bridge state"`
	Start      StartCmd      `cmd:"" help:"Start the bridge if it is not answering"`
	Version    VersionCmd    `cmd:"" help:"Show version"`

	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli := CLI{}
	parser := kong.Must(&cli,
		kong.Name("toolbridge"),
		kong.Description("Client for the tool-provider bridge"),
		kong.UsageOnError(),
	)
	kongplete.Complete(parser, kongplete.WithPredictor("provider", newProviderPredictor()))

	kctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer a.Close()

	err = kctx.Run(a)
	if err == nil {
		return exitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
		}
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitError
}
