package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ambapak/pkg/amba"
)

func inspectCmd() *cli.Command {
	var (
		firmware  string
		showTable bool
		showAll   bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the structure of a firmware container",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:        "firmware",
				Aliases:     []string{"f"},
				Usage:       "path to the firmware container",
				Destination: &firmware,
				Required:    true,
			},
			&cli.BoolFlag{Name: "table", Usage: "show the raw entry table", Destination: &showTable},
			&cli.BoolFlag{Name: "all", Usage: "show everything", Destination: &showAll},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyCommonConfig(c, cfg)

			if showAll {
				showTable = true
			}

			stat, err := os.Stat(firmware)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: stat %q: %v", firmware, err), 1)
			}

			res, err := amba.ExtractFile(firmware, amba.DiscardSink{}, amba.ExtractOptions{
				StrictChecksumTail: cfg.StrictChecksums,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: inspect %s: %v", firmware, err), 1)
			}

			fmt.Printf("Firmware: %s (%s)\n", firmware, formatBytes(uint64(stat.Size())))

			section("Container")
			row("model", res.Model)
			row("checksum", fmt.Sprintf("%08X", res.Header.CRC32))
			row("computed", fmt.Sprintf("%08X", res.CumulativeCRC))
			row("table_slots", fmt.Sprintf("%d", len(res.Entries)))
			row("table_end", res.Stop.String())

			if showTable {
				section("Entry Table")
				for i, e := range res.Entries {
					state := "empty"
					if e.Len > 0 {
						state = fmt.Sprintf("len=%-10d crc=%08X", e.Len, e.CRC32)
					}
					fmt.Printf("%2d  %-6s %s\n", i, amba.PartTypeTag(i), state)
				}
			}

			section("Partitions")
			for _, p := range res.Parts {
				fmt.Printf("%2d  %-6s %-18s v%-8s built=%s  %-10s addr=0x%08X crc=%08X\n",
					p.Slot, p.Tag, amba.PartTypeName(p.Slot),
					p.Header.VersionString(), p.Header.BuildDateString(),
					formatBytes(uint64(p.Header.Len)), p.Header.MemAddr, p.Header.CRC32)
				if p.SubTag != "" {
					fmt.Printf("    +- %-6s sub-payload %s\n", p.SubTag, formatBytes(uint64(p.SubLen)))
				}
			}
			if len(res.Parts) == 0 {
				fmt.Println("(none)")
			}

			if len(res.Anomalies) > 0 {
				section("Anomalies")
				for _, a := range res.Anomalies {
					fmt.Println(a.String())
				}
			}

			return nil
		},
	}
}

func section(title string) {
	line := strings.Repeat("-", len(title)+8)
	fmt.Printf("\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-24s %s\n", label+":", value)
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
