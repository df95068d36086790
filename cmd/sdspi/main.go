// Command sdspi drives an SD/MMC card over SPI.
//
// The card is reached through one of three transports: an emulated card
// backed by an image file, a Linux spidev device, or a Bus Pirate on a
// serial port.
//
// Usage:
//
//	sdspi [global options] command [arguments]
//
// Commands:
//
//	info                 Initialize the card and print its type, capacity and CID
//	status               Initialize the card and probe it
//	read SECTOR [COUNT]  Read sectors to stdout (hex dump on a terminal)
//	write SECTOR         Write stdin to consecutive sectors
//	mkimage PATH         Create a zero-filled image for the emulator
//
// Global options (environment variable in brackets):
//
//	--transport, -t      emu, spidev or buspirate [SDSPI_TRANSPORT]
//	--device, -d         Image, spidev or serial path [SDSPI_DEVICE]
//	--read-only          Open the emulator image read-only [SDSPI_READ_ONLY]
//	--speed              Transfer clock in Hz [SDSPI_SPEED]
//	--card               Emulated card kind: sdhc, sdsc, sdv1, mmc [SDSPI_CARD]
//	--block-addressing   Send sector indices to block-addressed cards [SDSPI_BLOCK_ADDRESSING]
//	--verbose            Enable verbose (debug) logging
//	--version, -v        Print the version
//	--json               Use JSON log format
//	--cpu-profile PATH   Write a CPU profile (profile builds only)
//	--heap-profile PATH  Write a heap profile on exit (profile builds only)
package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ardnew/softsd/pkg"
	"github.com/ardnew/softsd/pkg/prof"
)

const component = pkg.ComponentCLI

func main() {
	if err := newApp().Run(os.Args); err != nil {
		pkg.LogError(component, "command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "sdspi",
		Usage:   "drive an SD/MMC card over SPI",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Usage:   "bus transport: emu, spidev or buspirate",
				Value:   transportEmu,
				EnvVars: []string{"SDSPI_TRANSPORT"},
			},
			&cli.StringFlag{
				Name:    "device",
				Aliases: []string{"d"},
				Usage:   "image file, spidev device or serial port",
				EnvVars: []string{"SDSPI_DEVICE"},
			},
			&cli.BoolFlag{
				Name:    "read-only",
				Usage:   "open the emulator image read-only",
				EnvVars: []string{"SDSPI_READ_ONLY"},
			},
			&cli.UintFlag{
				Name:    "speed",
				Usage:   "transfer clock in Hz (0 for the transport default)",
				EnvVars: []string{"SDSPI_SPEED"},
			},
			&cli.StringFlag{
				Name:    "card",
				Usage:   "emulated card kind: sdhc, sdsc, sdv1 or mmc",
				Value:   "sdhc",
				EnvVars: []string{"SDSPI_CARD"},
			},
			&cli.BoolFlag{
				Name:    "block-addressing",
				Usage:   "send sector indices instead of byte addresses to block-addressed cards",
				Value:   true,
				EnvVars: []string{"SDSPI_BLOCK_ADDRESSING"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable verbose (debug) logging",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "use JSON log format",
			},
			&cli.StringFlag{
				Name:  "cpu-profile",
				Usage: "write a CPU profile to `PATH`",
			},
			&cli.StringFlag{
				Name:  "heap-profile",
				Usage: "write a heap profile to `PATH` on exit",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			infoCommand(),
			statusCommand(),
			readCommand(),
			writeCommand(),
			mkimageCommand(),
		},
	}
}

func setup(c *cli.Context) error {
	if c.Bool("json") {
		pkg.SetLogFormatWriter(pkg.LogFormatJSON, c.App.ErrWriter)
	}
	if c.Bool("verbose") {
		pkg.SetLogLevel(slog.LevelDebug)
	}

	if path := c.String("cpu-profile"); path != "" {
		if !prof.Enabled() {
			pkg.LogWarn(component, "built without the profile tag, ignoring --cpu-profile")
			return nil
		}
		if err := prof.StartCPU(path); err != nil {
			return err
		}
	}
	return nil
}

func teardown(c *cli.Context) error {
	if err := prof.StopCPU(); err != nil {
		return err
	}
	if path := c.String("heap-profile"); path != "" {
		if !prof.Enabled() {
			pkg.LogWarn(component, "built without the profile tag, ignoring --heap-profile")
			return nil
		}
		return prof.Write(prof.ProfileHeap, path)
	}
	return nil
}
