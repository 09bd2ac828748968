package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/AHartTN/hypersphere/metrics"
	"github.com/AHartTN/hypersphere/pipelines"
)

func newCmd_IngestBytes() *cli.Command {
	var cfg storeConfig
	return &cli.Command{
		Name:      "bytes",
		Usage:     "Ingest a file as a flat byte composition and print the root id.",
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

			id, err := pipelines.BytesPipeline(c.Context, st, data)
			if err != nil {
				return exitForError(err)
			}
			metrics.NodesIngestedByModality.WithLabelValues("bytes").Inc()
			klog.V(1).Infof("ingested %s as bytes, root id %d", path, id)
			fmt.Println(id)
			return nil
		},
	}
}
