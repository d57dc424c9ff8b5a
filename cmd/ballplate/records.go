package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/cjeanneret/ballplate/internal/logic/pid"
	"github.com/cjeanneret/ballplate/internal/telemetry"
)

// recordStore returns the store at dir, or at the config's record_dir when dir is empty.
func recordStore(dir string) (*telemetry.Store, error) {
	if dir != "" {
		return telemetry.NewStore(dir), nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Defaults.RecordDir == "" {
		return nil, errors.New("no record directory: pass --dir or set defaults.record_dir")
	}
	return telemetry.NewStore(cfg.Defaults.RecordDir), nil
}

func newListCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := recordStore(dir)
			if err != nil {
				return err
			}
			runs, err := store.List()
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "record directory (default: defaults.record_dir)")
	return cmd
}

func printRuns(w io.Writer, runs []telemetry.RunMetadata) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tMODE\tPROFILE\tCYCLES\tDURATION\tOUTCOME")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1fs\t%s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Mode, r.Profile, r.Cycles, r.Duration, r.Outcome)
	}
	tw.Flush()
}

func newPlotCmd() *cobra.Command {
	var (
		dir   string
		width int
	)
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot ball position and tilt of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := recordStore(dir)
			if err != nil {
				return err
			}
			meta, err := store.Load(args[0])
			if err != nil {
				return fmt.Errorf("load run %s: %w", args[0], err)
			}
			samples, err := store.LoadSamples(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s (%s, %s, %d cycles)\n\n", meta.ID, meta.Mode, meta.Profile, meta.Cycles)
			return renderPlots(cmd.OutOrStdout(), samples, width)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "record directory (default: defaults.record_dir)")
	cmd.Flags().IntVar(&width, "width", 80, "plot width in columns")
	return cmd
}

// renderPlots draws ball x/y, tilt magnitude and actuator angles.
func renderPlots(w io.Writer, samples []telemetry.Sample, width int) error {
	if len(samples) == 0 {
		return errors.New("run has no cycles")
	}
	ballX := make([]float64, len(samples))
	ballY := make([]float64, len(samples))
	tilt := make([]float64, len(samples))
	angles := [3][]float64{}
	for i, s := range samples {
		ballX[i] = s.BallX
		ballY[i] = s.BallY
		tilt[i] = s.Theta * 180 / math.Pi
		for j := range angles {
			if j < len(s.Angles) {
				angles[j] = append(angles[j], s.Angles[j])
			} else {
				angles[j] = append(angles[j], 0)
			}
		}
	}

	plots := []string{
		asciigraph.PlotMany([][]float64{ballX, ballY},
			asciigraph.Height(10), asciigraph.Width(width),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
			asciigraph.Caption("ball position (cm): x red, y blue")),
		asciigraph.Plot(tilt,
			asciigraph.Height(8), asciigraph.Width(width),
			asciigraph.Caption("tilt (deg)")),
		asciigraph.PlotMany(angles[:],
			asciigraph.Height(10), asciigraph.Width(width),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
			asciigraph.Caption("actuator angles (rad): a0 red, a1 green, a2 blue")),
	}
	for _, p := range plots {
		fmt.Fprintln(w, p)
		fmt.Fprintln(w)
	}
	return nil
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "list the PID gain profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printProfiles(cmd.OutOrStdout())
		},
	}
}

func printProfiles(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tKP\tKI\tKD")
	for _, name := range pid.ProfileNames() {
		p, err := pid.ParseProfile(name)
		if err != nil {
			return err
		}
		g := p.Gains()
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\n", name, g.Kp, g.Ki, g.Kd)
	}
	return tw.Flush()
}
