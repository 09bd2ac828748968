package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/model"
)

func newCmd_Lookup() *cli.Command {
	var cfg storeConfig
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Resolve a hex-encoded content hash to its node id.",
		ArgsUsage: "<hex-content-hash>",
		Flags:     storeFlags(&cfg),
		Action: func(c *cli.Context) error {
			hexHash := c.Args().First()
			raw, err := hex.DecodeString(hexHash)
			if err != nil || len(raw) != 32 {
				return cli.Exit(errkind.Wrap(errkind.InvalidInput, "expected a 32-byte hex content hash, got %q", hexHash).Error(), 2)
			}
			var hash model.ContentHash
			copy(hash[:], raw)

			st, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 3)
			}
			defer st.Close(c.Context)

			found, err := st.LookupByHashBatch(c.Context, []model.ContentHash{hash})
			if err != nil {
				return exitForError(err)
			}
			id, ok := found[hash]
			if !ok {
				fmt.Println("not found")
				return nil
			}
			fmt.Println(id)
			return nil
		},
	}
}
