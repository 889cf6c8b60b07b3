package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/brunoga/deep"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/takeoff/internal/experiment"
	"github.com/san-kum/takeoff/internal/export"
	"github.com/san-kum/takeoff/internal/optim"
)

func newTuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the elevator law for the shortest screen distance",
		Long: "Each --grid flag names a knob and its values, e.g. --grid vr=68,70,72.\n" +
			"Knobs: " + strings.Join(optim.KnobNames(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadConfig()
			if err != nil {
				return err
			}
			specs, err := cmd.Flags().GetStringArray("grid")
			if err != nil {
				return err
			}
			names, ranges, err := parseGrid(specs)
			if err != nil {
				return err
			}
			g, err := optim.NewGridSearch(names, ranges)
			if err != nil {
				return err
			}

			build := func(params map[string]float64) (*experiment.Experiment, error) {
				cfg := deep.MustCopy(base)
				if err := optim.Apply(cfg, params); err != nil {
					return nil, err
				}
				return experiment.New(cfg, lg)
			}
			best, trials, err := g.Search(cmd.Context(), build, optim.ScreenDistance)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\tSCREEN\tRESULT")
			for _, tr := range trials {
				for _, name := range names {
					fmt.Fprintf(w, "%g\t", tr.Params[name])
				}
				switch {
				case tr.Err != nil:
					fmt.Fprintf(w, "-\t%s\n", errStyle.Render(tr.Err.Error()))
				case math.IsInf(tr.Score, 1):
					fmt.Fprintf(w, "-\t%s\n", warnStyle.Render("infeasible"))
				default:
					fmt.Fprintf(w, "%.1f m\t%s\n", tr.Score, status(true))
				}
			}
			w.Flush()
			if err != nil {
				return err
			}
			fmt.Printf("\nbest: %v at %.1f m\n", best.Params, best.Score)
			return nil
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().StringArray("grid", []string{"vr=68,70,72,74,76"}, "knob=v1,v2,... (repeatable)")
	return cmd
}

func parseGrid(specs []string) ([]string, [][]float64, error) {
	sort.Strings(specs)
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("grid %q: want knob=v1,v2,...", spec)
		}
		var vals []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [run_id]",
		Short: "write an SVG profile of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, out, err := loadRun(args[0])
			if err != nil {
				return err
			}
			svg, err := export.ProfileSVG(out.Solution, viper.GetString("x"), viper.GetString("y"),
				viper.GetInt("width"), viper.GetInt("height"))
			if err != nil {
				return err
			}
			path := viper.GetString("output")
			if path == "" {
				path = args[0] + ".svg"
			}
			if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("x", "x", "horizontal variable (time for time)")
	cmd.Flags().String("y", "h", "vertical variable")
	cmd.Flags().Int("width", 800, "width, px")
	cmd.Flags().Int("height", 240, "height, px")
	cmd.Flags().StringP("output", "o", "", "output file (default <run_id>.svg)")
	return cmd
}
