package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/brunoga/deep"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/experiment"
	"github.com/san-kum/takeoff/internal/integrators"
	"github.com/san-kum/takeoff/internal/storage"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a takeoff to the screen height",
		Args:  cobra.NoArgs,
		RunE:  runTakeoff,
	}
	addConfigFlags(cmd)
	cmd.Flags().Bool("json", false, "print the full result as JSON")
	cmd.Flags().Bool("no-save", false, "do not store the run")
	return cmd
}

func runTakeoff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg, lg)
	if err != nil {
		return err
	}

	if !viper.GetBool("json") {
		fmt.Printf("running %s takeoff (%s, dt %g s)...\n", cfg.Airplane, cfg.Solver.Integrator, cfg.Solver.Dt)
	}
	start := time.Now()
	out, err := e.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if viper.GetBool("json") {
		return storage.WriteJSON(os.Stdout, out)
	}

	runID := ""
	if !viper.GetBool("no-save") {
		st := storage.New(viper.GetString("data"))
		if err := st.Init(); err != nil {
			return err
		}
		if runID, err = st.Save(cfg, out); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	if runID != "" {
		fmt.Printf("run id: %s\n", runID)
	}
	printOutcome(out)
	return nil
}

func printOutcome(out *experiment.Outcome) {
	fmt.Println("\n" + titleStyle.Render("events"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tEVENT\tTIME\tVALUE\tSTEPS")
	for _, ev := range out.Events {
		fmt.Fprintf(w, "%s\t%s\t%.3fs\t%.3g\t%d\n", ev.Phase, ev.Var, ev.Time, ev.Value, ev.Steps)
	}
	w.Flush()

	summary := fmt.Sprintf("%s %8.1f m\n%s %8.1f m\n%s %10.1f",
		labelStyle.Render("liftoff distance"), out.Liftoff,
		labelStyle.Render("screen distance "), out.Screen,
		labelStyle.Render("objective       "), out.Objective)
	fmt.Println(panelStyle.Render(summary))

	fmt.Println(titleStyle.Render("metrics"))
	names := make([]string, 0, len(out.Metrics))
	for name := range out.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, out.Metrics[name])
	}

	if out.Converged {
		fmt.Println("\nconstraints: " + okStyle.Render("satisfied"))
		return
	}
	fmt.Println("\nconstraints: " + warnStyle.Render(fmt.Sprintf("%d violated", len(out.Violations))))
	for _, v := range out.Violations {
		fmt.Printf("  %s\n", v)
	}
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one configuration across several headwinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			winds, err := cmd.Flags().GetFloat64Slice("winds")
			if err != nil {
				return err
			}
			outs, err := experiment.Sweep(cmd.Context(), cfg, winds, lg)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WIND\tLIFTOFF\tSCREEN\tFUEL\tCONSTRAINTS")
			for i, out := range outs {
				fmt.Fprintf(w, "%.1f m/s\t%.1f m\t%.1f m\t%.2f kg\t%s\n",
					winds[i], out.Liftoff, out.Screen, out.Metrics["fuel_burned"], status(out.Converged))
			}
			return w.Flush()
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().Float64Slice("winds", []float64{-5, 0, 5, 10}, "headwinds to run, m/s")
	return cmd
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same takeoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = integrators.Names()
			}
			return compareIntegrators(cmd.Context(), base, args)
		},
	}
	addConfigFlags(cmd)
	return cmd
}

func compareIntegrators(ctx context.Context, base *config.Config, names []string) error {
	fmt.Printf("comparing %s on %s\n\n", strings.Join(names, ", "), base.Airplane)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tLIFTOFF\tSCREEN\tSTEPS\tTIME")

	var ref *experiment.Outcome
	for _, name := range names {
		cfg := deep.MustCopy(base)
		cfg.Solver.Integrator = name
		e, err := experiment.New(cfg, lg)
		if err != nil {
			return err
		}
		start := time.Now()
		out, err := e.Run(ctx)
		if err != nil {
			fmt.Fprintf(w, "%s\t%s\n", name, errStyle.Render(err.Error()))
			continue
		}
		steps := 0
		for _, ev := range out.Events {
			steps += ev.Steps
		}
		diff := ""
		if ref != nil {
			diff = fmt.Sprintf(" (%+.3f)", out.Screen-ref.Screen)
		} else {
			ref = out
		}
		fmt.Fprintf(w, "%s\t%.3f m\t%.3f m%s\t%d\t%v\n", name, out.Liftoff, out.Screen, diff, steps, time.Since(start))
	}
	return w.Flush()
}
