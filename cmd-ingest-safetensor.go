package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"k8s.io/klog/v2"

	"github.com/AHartTN/hypersphere/bulk"
	"github.com/AHartTN/hypersphere/metrics"
)

func newCmd_IngestSafeTensor() *cli.Command {
	var cfg storeConfig
	var batchSize, workers int
	var sparsityThreshold float64
	var sparsityPct float64

	return &cli.Command{
		Name:      "safetensor",
		Usage:     "Stream a SafeTensor file's supported tensors into the store and print a summary.",
		ArgsUsage: "<file>",
		Flags: append(storeFlags(&cfg),
			batchSizeFlag(&batchSize),
			workersFlag(&workers),
			&cli.Float64Flag{
				Name:        "sparsity-threshold",
				Usage:       "Skip values with |v| below this threshold",
				Destination: &sparsityThreshold,
			},
			&cli.Float64Flag{
				Name:        "sparsity-pct",
				Usage:       "Sample magnitudes and pick the threshold at this percentile (overrides --sparsity-threshold)",
				Destination: &sparsityPct,
			},
		),
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("missing <file> argument", 2)
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("read %s: %v", path, err), 2)
			}
			data, err := bulk.MaybeDecompress(raw)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			st, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 3)
			}
			defer st.Close(c.Context)

			progress := mpb.New(mpb.WithWidth(48))
			bars := map[string]*mpb.Bar{}

			results, err := bulk.Tensor(c.Context, st, data, bulk.SafeTensorOptions{
				Options: bulk.Options{
					BatchSize: batchSize,
					Workers:   workers,
					OnProgress: func(p bulk.Progress) {
						bar, ok := bars[p.Phase]
						if !ok {
							bar = progress.AddBar(p.Total,
								mpb.PrependDecorators(decor.Name(p.Phase)),
								mpb.AppendDecorators(decor.Percentage()),
							)
							bars[p.Phase] = bar
						}
						bar.SetCurrent(p.Processed)
					},
				},
				SparsityThresholdValue: float32(sparsityThreshold),
				TargetSparsityPct:      sparsityPct,
			})
			progress.Wait()
			if err != nil {
				return exitForError(err)
			}

			var totalStored int64
			for _, r := range results {
				totalStored += r.Stored
				metrics.NodesIngestedByModality.WithLabelValues("safetensor").Add(float64(r.Stored))
				metrics.DecomposerSparsityPercent.WithLabelValues(r.Name).Set(r.SparsityPct)
				fmt.Printf("%s: stored=%s skipped=%s sparsity=%.2f%%\n",
					r.Name, humanize.Comma(r.Stored), humanize.Comma(r.Skipped), r.SparsityPct)
			}
			klog.V(1).Infof("ingested %s as safetensor, %s constants stored across %d tensors",
				path, humanize.Comma(totalStored), len(results))
			return nil
		},
	}
}
