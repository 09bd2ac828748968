package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/AHartTN/hypersphere/bulk"
	"github.com/AHartTN/hypersphere/metrics"
)

func newCmd_SeedUnicode() *cli.Command {
	var cfg storeConfig
	var batchSize, workers int
	var bmp, full bool

	return &cli.Command{
		Name:  "unicode",
		Usage: "Address every valid Unicode codepoint as a constant and print the count stored.",
		Flags: append(storeFlags(&cfg),
			batchSizeFlag(&batchSize),
			workersFlag(&workers),
			&cli.BoolFlag{Name: "bmp", Usage: "Limit to the Basic Multilingual Plane (U+0000-U+FFFF)", Destination: &bmp},
			&cli.BoolFlag{Name: "full", Usage: "Cover the full codepoint range (U+0000-U+10FFFF)", Destination: &full},
		),
		Action: func(c *cli.Context) error {
			end := uint32(bulk.BMPMax)
			if full {
				end = bulk.FullMax
			}
			if !bmp && !full {
				end = bulk.BMPMax
			}

			st, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 3)
			}
			defer st.Close(c.Context)

			stored, err := bulk.UnicodeBlock(c.Context, st, 0, end, bulk.Options{
				BatchSize: batchSize,
				Workers:   workers,
				OnProgress: func(p bulk.Progress) {
					klog.V(2).Infof("seed unicode: %s/%s processed", humanize.Comma(p.Processed), humanize.Comma(p.Total))
				},
			})
			if err != nil {
				return exitForError(err)
			}
			metrics.NodesIngestedByModality.WithLabelValues("unicode-seed").Add(float64(stored))
			fmt.Println(stored)
			return nil
		},
	}
}
