package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var gitCommitSHA = ""

func main() {
	// set up a context that is canceled when a command is interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// set up a signal handler to cancel the context
	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		// Allow any further SIGTERM or SIGINT to kill process
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "hypersphere",
		Version:     gitCommitSHA,
		Description: "CLI to address, ingest, and reconstruct data against the hypersphere content-addressed node store.",
		Flags:       NewKlogFlagSet(),
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "Ingest an input file through one of the universal pipelines.",
				Subcommands: []*cli.Command{
					newCmd_IngestText(),
					newCmd_IngestBytes(),
					newCmd_IngestSafeTensor(),
				},
			},
			{
				Name:  "seed",
				Usage: "Bulk-address a generated seed range rather than a file's contents.",
				Subcommands: []*cli.Command{
					newCmd_SeedUnicode(),
				},
			},
			newCmd_Reconstruct(),
			newCmd_Lookup(),
			newCmd_Version(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Fatal(err)
	}
}
