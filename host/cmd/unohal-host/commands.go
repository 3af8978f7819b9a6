package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"unohal/host/board"
)

var (
	dictCmd = &cobra.Command{
		Use:   "dict",
		Short: "Print the board dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(func(b *board.Board) error {
				printDictionary(b)
				return nil
			})
		},
	}

	clockCmd = &cobra.Command{
		Use:   "clock",
		Short: "Read millis and micros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(func(b *board.Board) error {
				v, err := b.Query("get_clock", "clock")
				if err != nil {
					return err
				}
				fmt.Printf("millis=%d micros=%d\n", v["millis"], v["micros"])
				return nil
			})
		},
	}

	pinCmd = &cobra.Command{
		Use:   "pin",
		Short: "Read or write a digital pin",
	}

	pinReadCmd = &cobra.Command{
		Use:   "read PIN",
		Short: "Read a pin level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(func(b *board.Board) error {
				pin, err := pinArg(b, args[0])
				if err != nil {
					return err
				}
				v, err := b.Query("digital_read", "pin_state", pin)
				if err != nil {
					return err
				}
				fmt.Printf("pin %d = %d\n", v["pin"], v["value"])
				return nil
			})
		},
	}

	pinWriteCmd = &cobra.Command{
		Use:   "write PIN 0|1",
		Short: "Drive a pin as output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseUint("value", args[1], 1)
			if err != nil {
				return err
			}
			return withBoard(func(b *board.Board) error {
				pin, err := pinArg(b, args[0])
				if err != nil {
					return err
				}
				return b.Send("digital_write", pin, value)
			})
		},
	}

	pwmPreset uint32

	pwmCmd = &cobra.Command{
		Use:   "pwm PIN DUTY",
		Short: "Start PWM on D3, D5, D6, D9, D10 or D11 with duty 0-255",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			duty, err := parseUint("duty", args[1], 8)
			if err != nil {
				return err
			}
			preset, err := presetForDivisor(pwmPreset)
			if err != nil {
				return err
			}
			return withBoard(func(b *board.Board) error {
				pin, err := pinArg(b, args[0])
				if err != nil {
					return err
				}
				if err := b.Send("config_pwm", pin, preset); err != nil {
					return err
				}
				return b.Send("set_pwm", pin, duty)
			})
		},
	}

	toneDuration uint32

	toneCmd = &cobra.Command{
		Use:   "tone [PIN] [HZ]",
		Short: "Play a square wave; defaults come from the profile",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hz := profile.Tone.FrequencyHz
			if len(args) == 2 {
				v, err := parseUint("frequency", args[1], 32)
				if err != nil {
					return err
				}
				hz = v
			}
			return withBoard(func(b *board.Board) error {
				pin := uint32(profile.Tone.Pin)
				if len(args) > 0 {
					var err error
					if pin, err = pinArg(b, args[0]); err != nil {
						return err
					}
				}
				return b.Send("tone", pin, hz, toneDuration)
			})
		},
	}

	noToneCmd = &cobra.Command{
		Use:   "notone [PIN]",
		Short: "Stop the tone",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(func(b *board.Board) error {
				pin := uint32(profile.Tone.Pin)
				if len(args) > 0 {
					var err error
					if pin, err = pinArg(b, args[0]); err != nil {
						return err
					}
				}
				return b.Send("no_tone", pin)
			})
		},
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Emergency stop: silence the tone and detach every servo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(func(b *board.Board) error {
				if _, err := b.Query("emergency_stop", "shutdown"); err != nil {
					return err
				}
				fmt.Println("board shut down")
				return nil
			})
		},
	}

	timingCmd = &cobra.Command{
		Use:   "timing",
		Short: "Dump the timing ring to the board's debug output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(func(b *board.Board) error {
				return b.Send("dump_timing")
			})
		},
	}
)

func init() {
	pinCmd.AddCommand(pinReadCmd, pinWriteCmd)
	pwmCmd.Flags().Uint32Var(&pwmPreset, "divisor", 64, "Timer clock divisor: 1, 8 or 64")
	toneCmd.Flags().Uint32Var(&toneDuration, "ms", 0, "Duration in milliseconds, 0 plays until notone")
}

// presetForDivisor maps a divisor to the config_pwm preset number.
func presetForDivisor(div uint32) (uint32, error) {
	switch div {
	case 64:
		return 0, nil
	case 8:
		return 1, nil
	case 1:
		return 2, nil
	}
	return 0, fmt.Errorf("unsupported PWM divisor %d", div)
}

func printDictionary(b *board.Board) {
	d := b.Dictionary()
	fmt.Println("=== Board Dictionary ===")
	fmt.Printf("Version: %s\n", d.Version)
	fmt.Printf("Build: %s\n", d.BuildVersions)

	fmt.Println("\nConfig:")
	for _, k := range sortedKeys(d.Config) {
		fmt.Printf("  %s = %s\n", k, d.Config[k])
	}

	fmt.Printf("\nCommands (%d):\n", len(d.Commands))
	for _, name := range b.CommandNames() {
		m, _ := b.Command(name)
		fmt.Printf("  [%2d] %s %v\n", m.ID, name, m.Fields)
	}

	fmt.Printf("\nResponses (%d):\n", len(d.Responses))
	for _, name := range b.ResponseNames() {
		fmt.Printf("  %s\n", name)
	}

	for name, values := range d.Enumerations {
		fmt.Printf("\nEnumeration %s: %d values\n", name, len(values))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
