package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ambapak/internal/sidecar"
	"github.com/samcharles93/ambapak/pkg/amba"
)

func searchCmd() *cli.Command {
	var (
		firmware string
		outDir   string
		dump     bool
	)

	return &cli.Command{
		Name:  "search",
		Usage: "Brute-force scan for partition headers, ignoring the entry table",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:        "firmware",
				Aliases:     []string{"f"},
				Usage:       "path to the (possibly damaged) firmware container",
				Destination: &firmware,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory for dumped payloads",
				Destination: &outDir,
			},
			&cli.BoolFlag{
				Name:        "dump",
				Usage:       "write every candidate payload as an artifact",
				Destination: &dump,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(c, cfg)
			log := newLog()

			view, err := amba.OpenView(firmware)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %s: %v", firmware, err), 1)
			}
			defer func() { _ = view.Close() }()

			var cands []amba.Candidate
			if dump {
				prefix, err := artifactPrefix(firmware, outDir, cfg)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				cands, err = amba.SearchExtract(view.Data, &sidecar.Store{Prefix: prefix})
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: dump payloads: %v", err), 1)
				}
			} else {
				cands = amba.Search(view.Data)
			}

			if len(cands) == 0 {
				return cli.Exit(fmt.Sprintf("%s: no partition headers found", firmware), 1)
			}
			for i, cand := range cands {
				crcState := "ok"
				if !cand.CRCOK {
					crcState = fmt.Sprintf("MISMATCH (computed %08X, header %08X)", cand.CRC, cand.Header.CRC32)
				}
				fmt.Printf("%02d  offset=0x%08X  len=%-10d v%-8s built=%s  crc=%s\n",
					i, cand.Offset, cand.Header.Len,
					cand.Header.VersionString(), cand.Header.BuildDateString(), crcState)
				if cand.Overlap > 0 {
					log.Warn("candidate overlaps previous payload", "index", i, "bytes", cand.Overlap)
				}
			}
			return nil
		},
	}
}
