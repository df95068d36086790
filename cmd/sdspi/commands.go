package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/ardnew/softsd/bus/emu"
	"github.com/ardnew/softsd/pkg"
	"github.com/ardnew/softsd/sd"
)

// defaultImageBlocks is 32 MiB of 512-byte blocks.
const defaultImageBlocks = 65536

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "initialize the card and print its type, capacity and CID",
		Action: func(c *cli.Context) error {
			s, err := openSession(c, true)
			if err != nil {
				return err
			}
			defer s.Close()

			w := c.App.Writer
			fmt.Fprintf(w, "type:     %s\n", s.card.CardType())
			fmt.Fprintf(w, "sectors:  %d\n", s.card.Sectors())
			fmt.Fprintf(w, "capacity: %s\n", formatBytes(s.card.Capacity()))

			var raw [16]byte
			if r := s.driver.ReadCID(&s.card, raw[:]); r.OK() {
				if cid, ok := sd.ParseCID(raw[:]); ok {
					fmt.Fprintf(w, "cid:      %s\n", cid)
				}
			} else {
				pkg.LogWarn(component, "CID unavailable", "result", r)
			}
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "initialize the card and probe it",
		Action: func(c *cli.Context) error {
			s, err := openSession(c, true)
			if err != nil {
				return err
			}
			defer s.Close()

			r := s.driver.Status(&s.card)
			fmt.Fprintf(c.App.Writer, "status: %s\n", r)
			return r.Err()
		},
	}
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "read sectors",
		ArgsUsage: "SECTOR [COUNT]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "write the data to `FILE` instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "hex",
				Usage: "always print a hex dump",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "never print a hex dump",
			},
		},
		Action: func(c *cli.Context) error {
			sector, err := sectorArg(c, 0)
			if err != nil {
				return err
			}
			count := uint64(1)
			if c.NArg() > 1 {
				if count, err = strconv.ParseUint(c.Args().Get(1), 0, 32); err != nil || count == 0 {
					return fmt.Errorf("%w: count %q", pkg.ErrParameter, c.Args().Get(1))
				}
			}

			s, err := openSession(c, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if sectors := s.card.Sectors(); sector >= sectors || count > sectors-sector {
				return fmt.Errorf("%w: sectors %d+%d beyond %d", pkg.ErrParameter, sector, count, sectors)
			}
			buf := make([]byte, count*sd.BlockSize)
			if _, err := s.disk.Read(sector, uint32(count), buf); err != nil {
				return err
			}

			w := c.App.Writer
			if path := c.String("out"); path != "" {
				return os.WriteFile(path, buf, 0o644)
			}
			hexDump := c.Bool("hex") || (!c.Bool("raw") && isTerminal(w))
			if hexDump {
				return dump(w, buf, int64(sector)*sd.BlockSize)
			}
			_, err = w.Write(buf)
			return err
		},
	}
}

func writeCommand() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "write data to consecutive sectors, padding the last with zeros",
		ArgsUsage: "SECTOR",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "in",
				Aliases: []string{"i"},
				Usage:   "read the data from `FILE` instead of stdin",
			},
		},
		Action: func(c *cli.Context) error {
			sector, err := sectorArg(c, 0)
			if err != nil {
				return err
			}

			var data []byte
			if path := c.String("in"); path != "" {
				data, err = os.ReadFile(path)
			} else {
				data, err = io.ReadAll(c.App.Reader)
			}
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return fmt.Errorf("%w: no data", pkg.ErrParameter)
			}
			blocks := (len(data) + sd.BlockSize - 1) / sd.BlockSize
			if pad := blocks*sd.BlockSize - len(data); pad > 0 {
				data = append(data, bytes.Repeat([]byte{0}, pad)...)
			}

			s, err := openSession(c, false)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.disk.Write(sector, uint32(blocks), data)
			pkg.LogInfo(component, "sectors written", "first", sector, "count", n)
			if err != nil {
				return err
			}
			return s.disk.Sync()
		},
	}
}

func mkimageCommand() *cli.Command {
	return &cli.Command{
		Name:      "mkimage",
		Usage:     "create a zero-filled card image for the emulator",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:    "blocks",
				Aliases: []string{"b"},
				Usage:   "image size in 512-byte blocks",
				Value:   defaultImageBlocks,
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("%w: missing image path", pkg.ErrParameter)
			}
			blocks := c.Uint64("blocks")
			if err := emu.CreateImage(path, blocks); err != nil {
				return err
			}
			pkg.LogInfo(component, "image created", "path", path, "blocks", blocks)
			return nil
		},
	}
}

func sectorArg(c *cli.Context, index int) (uint64, error) {
	arg := c.Args().Get(index)
	if arg == "" {
		return 0, fmt.Errorf("%w: missing sector", pkg.ErrParameter)
	}
	sector, err := strconv.ParseUint(arg, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: sector %q", pkg.ErrParameter, arg)
	}
	return sector, nil
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
