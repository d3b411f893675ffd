package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ambapak/internal/sidecar"
	"github.com/samcharles93/ambapak/pkg/amba"
)

func extractCmd() *cli.Command {
	var (
		firmware string
		outDir   string
		strict   bool
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Split a firmware container into per-partition artifacts",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:        "firmware",
				Aliases:     []string{"f"},
				Usage:       "path to the firmware container",
				Destination: &firmware,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory for artifacts",
				Destination: &outDir,
			},
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "use the corrected checksum tail for unaligned regions",
				Destination: &strict,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(c, cfg)
			log := newLog()

			prefix, err := artifactPrefix(firmware, outDir, cfg)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			store := &sidecar.Store{Prefix: prefix}

			res, err := amba.ExtractFile(firmware, store, amba.ExtractOptions{
				StrictChecksumTail: strict || cfg.StrictChecksums,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: extract %s: %v", firmware, err), 1)
			}
			if err := store.SaveResult(res); err != nil {
				return cli.Exit(fmt.Sprintf("error: write sidecar: %v", err), 1)
			}

			log.Info("extracted container",
				"model", res.Model,
				"parts", len(res.Parts),
				"table_slots", len(res.Entries),
				"stop", res.Stop.String(),
			)
			for _, p := range res.Parts {
				log.Info("partition",
					"slot", p.Slot,
					"type", p.Tag,
					"version", p.Header.VersionString(),
					"built", p.Header.BuildDateString(),
					"size", p.Header.Len,
					"artifact", store.PayloadPath(p.Tag),
				)
				if p.SubTag != "" {
					log.Info("sub-payload", "slot", p.Slot, "artifact", store.PayloadPath(p.SubTag), "size", p.SubLen)
				}
			}
			for _, a := range res.Anomalies {
				log.Warn("anomaly", "kind", a.Kind.String(), "slot", a.Slot, "detail", a.Msg)
			}
			return nil
		},
	}
}
