// Wifi-panel manages the saved WiFi networks of an embedded device.
//
// It talks to the device's /api/wifi endpoints and offers three front ends:
// a web panel (serve), a terminal panel (tui) and one-shot commands for
// scripting (list, scan, status, add, remove, stop-ap). The simulate command
// runs a stand-in device for development.
//
// Usage:
//
//	wifi-panel [command] [flags]
//
// See 'wifi-panel --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifipanel/internal/config"
	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	deviceFlag   string
	configPath   string
	logLevel     string
	outputFormat string
	useDiscovery bool
)

// settings is loaded before every command runs.
var settings *config.Settings

var rootCmd = &cobra.Command{
	Use:   "wifi-panel",
	Short: "WiFi network manager for embedded devices",
	Long: `Manage the saved WiFi networks of a device exposing the /api/wifi API.

Lists saved networks, shows nearby networks with their signal strength,
adds and removes saved networks and stops the device's setup access point.
Run 'serve' for the web panel or 'tui' for the terminal panel.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}

		s, err := config.Load(configPath)
		if err != nil {
			return err
		}
		settings = s

		switch outputFormat {
		case formatText, formatJSON:
		default:
			return fmt.Errorf("unknown format %q (use %s or %s)", outputFormat, formatText, formatJSON)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "Device URL or name from the config file")
	rootCmd.PersistentFlags().BoolVar(&useDiscovery, "discover", false, "Find the device over mDNS instead of using the configured URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the settings file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatText, "Output format (text, json)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat == formatJSON {
			return printJSON(cmd.OutOrStdout(), version.Get())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wifi-panel %s\n", version.Full())
		return nil
	},
}
