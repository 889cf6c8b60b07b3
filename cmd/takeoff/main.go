// Command takeoff simulates the takeoff of a transport airplane from brake
// release to the screen height and inspects the underlying phase models.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/takeoff/internal/log"
)

var lg *log.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:           "takeoff",
		Short:         "airplane takeoff phase dynamics and sensitivities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd); err != nil {
				return err
			}
			l, err := log.New(viper.GetString("log-level"), viper.GetString("log-dir"))
			if err != nil {
				return err
			}
			lg = l
			lg.Info("command started", "cmd", cmd.CommandPath(), "args", args)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("data", ".takeoff", "data directory")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-dir", "", "log directory (default: user cache dir)")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newCompareCmd(),
		newListCmd(),
		newShowCmd(),
		newPlotCmd(),
		newExportCmd(),
		newProfileCmd(),
		newLiveCmd(),
		newTuneCmd(),
		newDescribeCmd(),
		newCheckCmd(),
		newPresetsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
		lg.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// bindFlags layers TAKEOFF_* environment variables under the flags of cmd.
func bindFlags(cmd *cobra.Command) error {
	viper.SetEnvPrefix("takeoff")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}
	return viper.BindPFlags(cmd.Flags())
}
