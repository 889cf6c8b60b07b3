package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goforj/godump"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/takeoff/internal/experiment"
	"github.com/san-kum/takeoff/internal/sim"
	"github.com/san-kum/takeoff/internal/storage"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(viper.GetString("data")).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tAIRPLANE\tTIME\tWIND\tINTEG\tLIFTOFF\tSCREEN\tOK")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\t%.1fm\t%.1fm\t%s\n",
					run.ID,
					run.Airplane,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.WindSpeed,
					run.Integrator,
					run.Liftoff,
					run.Screen,
					status(run.Converged),
				)
			}
			return w.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, out, err := loadRun(args[0])
			if err != nil {
				return err
			}
			if dump, _ := cmd.Flags().GetBool("dump"); dump {
				fmt.Print(godump.DumpStr(meta))
				return nil
			}
			fmt.Printf("run: %s (%s, %s, flap %g deg, wind %g m/s, %.0f kg)\n",
				meta.ID, meta.Airplane, meta.Condition, meta.FlapAngle, meta.WindSpeed, meta.Mass)
			printOutcome(out)
			return nil
		},
	}
	cmd.Flags().Bool("dump", false, "dump the raw run metadata")
	return cmd
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot time histories of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringSlice("vars", []string{"v", "h", "theta", "de"}, "variables to plot")
	return cmd
}

// plotRun joins the phases into one history per variable. Phases that do
// not carry a variable leave a gap.
func plotRun(cmd *cobra.Command, args []string) error {
	meta, out, err := loadRun(args[0])
	if err != nil {
		return err
	}
	vars, err := cmd.Flags().GetStringSlice("vars")
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("airplane: %s\n\n", meta.Airplane)

	for _, name := range vars {
		var data []float64
		for _, ps := range out.Solution.Phases {
			vals, ok := ps.Values[name]
			if !ok {
				continue
			}
			data = append(data, vals...)
		}
		if len(data) == 0 {
			fmt.Printf("%s: not recorded\n\n", name)
			continue
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs node"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, out, err := loadRun(args[0])
			if err != nil {
				return err
			}
			if path := viper.GetString("output"); path != "" {
				return storage.ExportJSON(path, out)
			}
			return storage.WriteJSON(os.Stdout, out)
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

// loadRun reads a stored run back into an outcome.
func loadRun(id string) (*storage.RunMetadata, *experiment.Outcome, error) {
	st := storage.New(viper.GetString("data"))
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	sol, err := st.LoadSolution(id)
	if err != nil {
		return nil, nil, err
	}
	return meta, &experiment.Outcome{
		Result:     &sim.Result{Solution: sol, Events: meta.Events, Metrics: meta.Metrics},
		Objective:  meta.Objective,
		Liftoff:    meta.Liftoff,
		Screen:     meta.Screen,
		Converged:  meta.Converged,
		Violations: meta.Violations,
	}, nil
}
