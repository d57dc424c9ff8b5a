package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/logic/geometry"
)

func newLocateCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "print the ball position on the plate without driving the actuators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			loc, err := newLocator(cfg)
			if err != nil {
				return err
			}
			defer loc.Close()
			debug.Section("Locating ball")
			return printPositions(cmd.Context(), cmd.OutOrStdout(), loc, count)
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many frames (0 = until interrupted)")
	return cmd
}

type positionLocator interface {
	Locate(ctx context.Context) (geometry.Position, error)
}

// printPositions writes one "x,y" line in cm per frame.
func printPositions(ctx context.Context, w io.Writer, loc positionLocator, count int) error {
	for i := 0; count <= 0 || i < count; i++ {
		pos, err := loc.Locate(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fmt.Fprintf(w, "%.2f,%.2f\n", pos.X, pos.Y)
	}
	return nil
}
