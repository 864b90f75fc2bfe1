package cmd

import (
	"fmt"
	"log/slog"

	"github.com/audiolibrelab/focusd/internal/activity"
	"github.com/audiolibrelab/focusd/internal/focus"
	"github.com/audiolibrelab/focusd/internal/server"
	"github.com/audiolibrelab/focusd/internal/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the focus arbitration server",
	Long: `Start the focusd control server. Client interfaces acquire and
release channels over its HTTP API; the server reports channel states,
live sessions and the recent activity history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = cfg.Server.Port
		}

		recorder := activity.NewRecorder(cfg.Server.ActivityHistory)
		tracker := activity.Multi{activity.NewLogger(), recorder}
		manager := focus.NewManager(cfg.ChannelConfigs(), tracker)
		defer manager.Shutdown()

		svc := service.New(manager, recorder)
		srv := server.New(svc, port)

		slog.Info("focusd starting", "port", port, "config", cfgFile, "preset", cfg.Preset)

		// Start server (this blocks)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port for the control server (overrides config)")
}
