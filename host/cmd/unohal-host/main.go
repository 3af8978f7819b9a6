package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"unohal/config"
	"unohal/host/board"
	"unohal/host/serial"
)

var (
	opts = struct {
		config string
		device string
		baud   int
	}{}

	profile *config.Profile

	rootCmd = &cobra.Command{
		Use:           "unohal-host",
		Short:         "Talk to an Arduino Uno running the unohal firmware",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.config != "" {
				profile, err = config.Load(opts.config)
				if err != nil {
					return err
				}
			} else {
				profile = config.Default()
			}
			if cmd.Flags().Changed("device") {
				profile.Device = opts.device
			}
			if cmd.Flags().Changed("baud") {
				profile.Baud = opts.baud
			}
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "YAML board profile")
	rootCmd.PersistentFlags().StringVarP(&opts.device, "device", "d", "/dev/ttyACM0", "Serial device path")
	rootCmd.PersistentFlags().IntVarP(&opts.baud, "baud", "b", 115200, "Baud rate")

	rootCmd.AddCommand(dictCmd, clockCmd, pinCmd, pwmCmd, toneCmd, noToneCmd, servoCmd, stopCmd, timingCmd, profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withBoard connects, fetches the dictionary and runs fn.
func withBoard(fn func(b *board.Board) error) error {
	b, err := board.Connect(serial.FromProfile(profile))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer b.Close()

	if err := b.RetrieveDictionary(); err != nil {
		return fmt.Errorf("retrieve dictionary: %w", err)
	}
	return fn(b)
}

// parseUint parses a decimal argument that must fit in bits.
func parseUint(name, s string, bits int) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return uint32(v), nil
}

// pinArg accepts "13", "D13" or "A0".
func pinArg(b *board.Board, s string) (uint32, error) {
	if v, err := strconv.ParseUint(s, 10, 8); err == nil {
		return uint32(v), nil
	}
	return b.PinNumber(s)
}
