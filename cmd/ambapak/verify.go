package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ambapak/pkg/amba"
)

func verifyCmd() *cli.Command {
	var (
		firmware string
		strict   bool
	)

	return &cli.Command{
		Name:  "verify",
		Usage: "Check a firmware container without writing artifacts",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:        "firmware",
				Aliases:     []string{"f"},
				Usage:       "path to the firmware container",
				Destination: &firmware,
				Required:    true,
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

			res, err := amba.ExtractFile(firmware, amba.DiscardSink{}, amba.ExtractOptions{
				StrictChecksumTail: strict || cfg.StrictChecksums,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: verify %s: %v", firmware, err), 1)
			}

			log.Info("verified container",
				"model", res.Model,
				"parts", len(res.Parts),
				"checksum", fmt.Sprintf("%08X", res.CumulativeCRC),
			)
			for _, a := range res.Anomalies {
				log.Warn("anomaly", "kind", a.Kind.String(), "slot", a.Slot, "detail", a.Msg)
			}
			if n := len(res.Anomalies); n > 0 {
				return cli.Exit(fmt.Sprintf("%s: %d anomalies", firmware, n), 1)
			}
			fmt.Printf("%s: OK (model %s, %d partitions)\n", firmware, res.Model, len(res.Parts))
			return nil
		},
	}
}
