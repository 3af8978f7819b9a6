package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"unohal/config"
	"unohal/host/board"
)

var (
	servoCmd = &cobra.Command{
		Use:   "servo",
		Short: "Drive servos by profile name or oid",
	}

	servoAttachCmd = &cobra.Command{
		Use:   "attach NAME",
		Short: "Configure a profile servo on its pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oid, s, ok := profile.ServoOID(args[0])
			if !ok {
				return fmt.Errorf("servo %q is not in the profile", args[0])
			}
			return withBoard(func(b *board.Board) error {
				return attachServo(b, oid, s)
			})
		},
	}

	servoWriteCmd = &cobra.Command{
		Use:   "write NAME ANGLE",
		Short: "Move to an angle in degrees",
		Args:  cobra.ExactArgs(2),
		RunE:  servoValue("servo_write", "angle"),
	}

	servoUSCmd = &cobra.Command{
		Use:   "us NAME MICROSECONDS",
		Short: "Set the pulse width directly",
		Args:  cobra.ExactArgs(2),
		RunE:  servoValue("servo_write_us", "width"),
	}

	servoDetachCmd = &cobra.Command{
		Use:   "detach NAME",
		Short: "Stop the pulses and drive the pin low",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oid, err := servoOID(args[0])
			if err != nil {
				return err
			}
			return withBoard(func(b *board.Board) error {
				return b.Send("servo_detach", oid)
			})
		},
	}

	servoQueryCmd = &cobra.Command{
		Use:   "query NAME",
		Short: "Print width, angle and attach state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oid, err := servoOID(args[0])
			if err != nil {
				return err
			}
			return withBoard(func(b *board.Board) error {
				v, err := b.Query("query_servo", "servo_state", oid)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d µs, %d degrees, attached=%d\n", args[0], v["us"], v["angle"], v["attached"])
				return nil
			})
		},
	}
)

func init() {
	servoCmd.AddCommand(servoAttachCmd, servoWriteCmd, servoUSCmd, servoDetachCmd, servoQueryCmd)
}

// servoOID resolves a profile name, or takes a bare number as the oid.
func servoOID(name string) (uint32, error) {
	if oid, _, ok := profile.ServoOID(name); ok {
		return uint32(oid), nil
	}
	v, err := strconv.ParseUint(name, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("servo %q is not in the profile", name)
	}
	return uint32(v), nil
}

func attachServo(b *board.Board, oid uint8, s config.Servo) error {
	return b.Send("config_servo", uint32(oid), uint32(s.Pin), uint32(s.MinUS), uint32(s.MaxUS))
}

// servoValue builds a command that sends one value to a servo. Profile
// servos are configured first, since the board forgets them on reset.
func servoValue(command, what string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		value, err := parseUint(what, args[1], 16)
		if err != nil {
			return err
		}
		oid, err := servoOID(args[0])
		if err != nil {
			return err
		}
		return withBoard(func(b *board.Board) error {
			if _, s, ok := profile.ServoOID(args[0]); ok {
				if err := attachServo(b, uint8(oid), s); err != nil {
					return err
				}
			}
			return b.Send(command, oid, value)
		})
	}
}
