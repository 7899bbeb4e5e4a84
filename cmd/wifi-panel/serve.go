package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/panel"
	"github.com/muurk/wifipanel/internal/server"
	"github.com/muurk/wifipanel/internal/tui"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

var serveListen string

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address for the web panel (default from config, :8080)")
}

// newPanel creates a controller for client using the panel settings.
func newPanel(client *wifiapi.Client) *panel.Controller {
	return panel.New(client,
		panel.WithSavedRefresh(settings.Panel.SavedRefresh),
		panel.WithScanPoll(settings.Panel.ScanPoll),
		panel.WithSnackTimeout(settings.Panel.SnackTimeout),
		panel.WithTitle(settings.Panel.Title),
	)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web panel",
	Long: `Serve the WiFi panel as a web page. The page updates itself over a
websocket when the saved list or scan result is refreshed, and works as plain
HTML forms without JavaScript.`,
	Example: `  wifi-panel serve
  wifi-panel serve --device http://192.168.4.1 --listen 127.0.0.1:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		listen := settings.Panel.Listen
		if serveListen != "" {
			listen = serveListen
		}
		return servePanel(context.Background(), client, listen, true)
	},
}

// servePanel runs the web panel until a signal arrives or ctx is done.
func servePanel(ctx context.Context, client *wifiapi.Client, listen string, handleSignals bool) error {
	ctl := newPanel(client)
	defer ctl.Stop()

	srv, err := server.New(&server.Config{Listen: listen}, ctl)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// a failed first load is retried on the next page view
	if err := ctl.Start(ctx); err != nil {
		logging.Warn("Initial panel load failed", zap.String("device", client.BaseURL), zap.Error(err))
	}

	fmt.Printf("WiFi panel for %s on http://%s\n", client.BaseURL, listen)
	if handleSignals {
		return srv.Start()
	}
	return srv.Serve(ctx)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show the terminal panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctl := newPanel(client)
		defer ctl.Stop()

		return tui.Run(ctx, ctl, client.BaseURL)
	},
}
