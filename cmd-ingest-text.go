package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/AHartTN/hypersphere/decomposer"
	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/metrics"
)

func newCmd_IngestText() *cli.Command {
	var cfg storeConfig
	return &cli.Command{
		Name:      "text",
		Usage:     "Decompose a text file into shared grammar compositions and print the root id.",
		ArgsUsage: "<file>",
		Flags:     storeFlags(&cfg),
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("missing <file> argument", 2)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("read %s: %v", path, err), 2)
			}

			st, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 3)
			}
			defer st.Close(c.Context)

			id, err := decomposer.Decompose(c.Context, st, string(data))
			if err != nil {
				return exitForError(err)
			}
			metrics.NodesIngestedByModality.WithLabelValues("text").Inc()
			klog.V(1).Infof("ingested %s as text, root id %d", path, id)
			fmt.Println(id)
			return nil
		},
	}
}

// exitForError maps an errkind-classified error onto the exit codes spec.md
// §6 defines: 0 success, 2 invalid input, 3 store error, 4 cancelled.
func exitForError(err error) error {
	switch {
	case errorIs(err, errkind.InvalidInput), errorIs(err, errkind.PreconditionViolation):
		return cli.Exit(err.Error(), 2)
	case errorIs(err, errkind.Cancelled):
		return cli.Exit(err.Error(), 4)
	case errorIs(err, errkind.StoreIO):
		return cli.Exit(err.Error(), 3)
	default:
		return cli.Exit(err.Error(), 3)
	}
}
