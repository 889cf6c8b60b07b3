package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/experiment"
	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/viz"
)

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live [run_id]",
		Short: "replay a takeoff in the terminal, simulating one if no run is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r viz.Replay
			if len(args) == 1 {
				meta, out, err := loadRun(args[0])
				if err != nil {
					return err
				}
				rw, err := aircraft.GetRunway(meta.Runway)
				if err != nil {
					return err
				}
				screen := 0.0
				if tr := out.Solution.Phase(phase.Transition); tr != nil {
					screen, _ = tr.Final("h")
				}
				r = viz.NewReplay(meta.Airplane, out.Solution, out.Events, rw.TORA, screen)
			} else {
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
				r = viz.NewReplay(cfg.Airplane, out.Solution, out.Events, e.Runway.TORA, cfg.Solver.ScreenHeight)
			}
			_, err := tea.NewProgram(r, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	addConfigFlags(cmd)
	return cmd
}
