package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/experiment"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "print the phase, linkage and objective declarations as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, _, tr, err := experiment.Problem(cfg, lg)
			if err != nil {
				return err
			}
			out, err := tr.Describe().YAML()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
	addConfigFlags(cmd)
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "compare analytic partials with finite differences along a simulated takeoff",
		Args:  cobra.NoArgs,
		RunE:  checkPartials,
	}
	addConfigFlags(cmd)
	cmd.Flags().Float64("rtol", dynamo.DefaultCheckOptions().Rtol, "relative tolerance")
	cmd.Flags().Float64("atol", dynamo.DefaultCheckOptions().Atol, "absolute tolerance")
	cmd.Flags().Bool("all", false, "list passing partials too")
	return cmd
}

func checkPartials(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg, lg)
	if err != nil {
		return err
	}
	out, err := e.Run(cmd.Context())
	if err != nil {
		return err
	}
	evs, err := e.Trajectory.EvaluateAll(cmd.Context(), out.Solution, false)
	if err != nil {
		return err
	}

	opts := dynamo.CheckOptions{Rtol: viper.GetFloat64("rtol"), Atol: viper.GetFloat64("atol")}
	all := viper.GetBool("all")
	failed := 0
	for i, p := range e.Trajectory.Phases {
		members, err := p.CheckPartials(evs[i], opts)
		if err != nil {
			return err
		}
		fmt.Println(titleStyle.Render(fmt.Sprintf("%s (%d nodes)", p, evs[i].N)))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COMPONENT\tPARTIAL\tANALYTIC\tFD\tABS ERR\tREL ERR\t")
		for _, m := range members {
			for _, c := range m.Checks {
				if !c.OK {
					failed++
				} else if !all {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%.6g\t%.6g\t%.2e\t%.2e\t%s\n",
					m.Member, c.Pair, c.Analytic, c.FD, c.MaxAbsErr, c.MaxRelErr, status(c.OK))
			}
			if !all && m.OK() {
				fmt.Fprintf(w, "%s\t%d partials\t\t\t\t\t%s\n", m.Member, len(m.Checks), status(true))
			}
		}
		w.Flush()
		fmt.Println()
	}
	if failed > 0 {
		return fmt.Errorf("%d partials disagree with finite differences", failed)
	}
	fmt.Println(okStyle.Render("all partials agree"))
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations, airplanes and runways",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tAIRPLANE\tRUNWAY\tFLAP\tWIND\tCONDITION")
			for _, name := range config.ListPresets() {
				c := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%s\n", name, c.Airplane, c.Runway, c.FlapAngle, c.WindSpeed, c.Condition)
			}
			w.Flush()

			fmt.Println("\n" + titleStyle.Render("airplanes"))
			for _, id := range aircraft.List() {
				ap, _ := aircraft.Get(id)
				fmt.Printf("  %s  %s (MTOW %.0f kg)\n", id, ap.Name, ap.Limits.MTOW)
			}
			fmt.Println("\n" + titleStyle.Render("runways"))
			for _, name := range aircraft.ListRunways() {
				rw, _ := aircraft.GetRunway(name)
				fmt.Printf("  %s  TORA %.0f m, elevation %.0f m, slope %.4f rad, mu %.3f\n",
					name, rw.TORA, rw.Elevation, rw.Slope, rw.Friction)
			}
			return nil
		},
	}
}
