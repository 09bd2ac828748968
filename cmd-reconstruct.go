package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/reconstruct"
	"github.com/AHartTN/hypersphere/store"
)

func newCmd_Reconstruct() *cli.Command {
	var cfg storeConfig
	var as string
	var floatBits int

	return &cli.Command{
		Name:      "reconstruct",
		Usage:     "Reconstruct a stored node to stdout, bit-exact to its original input.",
		ArgsUsage: "<id>",
		Flags: append(storeFlags(&cfg),
			&cli.StringFlag{Name: "as", Usage: "One of text|bytes|audio|image|floats", Destination: &as, Required: true},
			&cli.IntFlag{Name: "float-bits", Usage: "32 or 64, for --as floats", Value: 32, Destination: &floatBits},
		),
		Action: func(c *cli.Context) error {
			idStr := c.Args().First()
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid id %q", idStr), 2)
			}

			st, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 3)
			}
			defer st.Close(c.Context)

			out := bufio.NewWriter(os.Stdout)
			defer out.Flush()

			switch as {
			case "text":
				s, err := reconstruct.Text(c.Context, st, id)
				if err != nil {
					return exitForError(err)
				}
				_, err = out.WriteString(s)
				return err
			case "bytes":
				b, err := reconstruct.Bytes(c.Context, st, id)
				if err != nil {
					return exitForError(err)
				}
				_, err = out.Write(b)
				return err
			case "floats":
				return writeFloats(c, st, id, floatBits, out)
			case "image":
				w, h, pixels, err := reconstruct.Image(c.Context, st, id)
				if err != nil {
					return exitForError(err)
				}
				binary.Write(out, binary.LittleEndian, uint32(w))
				binary.Write(out, binary.LittleEndian, uint32(h))
				for _, p := range pixels {
					binary.Write(out, binary.LittleEndian, p)
				}
				return nil
			case "audio":
				sampleRate, channels, bits, samples, err := reconstruct.Audio(c.Context, st, id)
				if err != nil {
					return exitForError(err)
				}
				binary.Write(out, binary.LittleEndian, uint32(sampleRate))
				binary.Write(out, binary.LittleEndian, uint32(channels))
				binary.Write(out, binary.LittleEndian, uint32(bits))
				for _, s := range samples {
					binary.Write(out, binary.LittleEndian, math.Float32bits(s))
				}
				return nil
			default:
				return cli.Exit(errkind.Wrap(errkind.InvalidInput, "unknown --as %q", as).Error(), 2)
			}
		},
	}
}

func writeFloats(c *cli.Context, st store.NodeStore, id int64, bits int, out *bufio.Writer) error {
	switch bits {
	case 32:
		values, err := reconstruct.Float32Array(c.Context, st, id)
		if err != nil {
			return exitForError(err)
		}
		for _, v := range values {
			binary.Write(out, binary.LittleEndian, math.Float32bits(v))
		}
		return nil
	case 64:
		values, err := reconstruct.Float64Array(c.Context, st, id)
		if err != nil {
			return exitForError(err)
		}
		for _, v := range values {
			binary.Write(out, binary.LittleEndian, math.Float64bits(v))
		}
		return nil
	default:
		return cli.Exit("--float-bits must be 32 or 64", 2)
	}
}
