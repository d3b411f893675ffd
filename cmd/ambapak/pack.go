package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ambapak/internal/sidecar"
	"github.com/samcharles93/ambapak/pkg/amba"
)

func packCmd() *cli.Command {
	var (
		artifacts string
		output    string
	)

	return &cli.Command{
		Name:  "pack",
		Usage: "Assemble a firmware container from extracted artifacts",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:        "artifacts",
				Aliases:     []string{"a"},
				Usage:       "artifact directory or sidecar prefix from a previous extract",
				Destination: &artifacts,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "path of the container to write",
				Destination: &output,
				Required:    true,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(c, cfg)
			log := newLog()

			store := &sidecar.Store{Prefix: resolvePrefix(artifacts)}
			meta, err := store.LoadContainer()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load sidecar: %v", err), 1)
			}

			f, err := os.Create(output)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			res, err := amba.Pack(f, meta, store)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: pack %s: %v", output, err), 1)
			}

			log.Info("packed container",
				"model", meta.ModelName,
				"output", output,
				"size", res.Size,
				"checksum", fmt.Sprintf("%08X", res.Header.CRC32),
			)
			for _, a := range res.Anomalies {
				log.Warn("anomaly", "kind", a.Kind.String(), "slot", a.Slot, "detail", a.Msg)
			}
			return nil
		},
	}
}
