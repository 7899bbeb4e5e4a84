package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/wifipanel/internal/discovery"
	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/tui"
	"github.com/muurk/wifipanel/internal/view"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
)

// Command flags
var (
	addPassword    string
	addVerify      bool
	removeName     string
	discoverWindow time.Duration
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(stopAPCmd)
	rootCmd.AddCommand(discoverCmd)

	addCmd.Flags().StringVar(&addPassword, "password", "", "Network passphrase (prompted when omitted)")
	addCmd.Flags().BoolVar(&addVerify, "verify", false, "Read the saved list back to confirm the network was kept")
	removeCmd.Flags().StringVar(&removeName, "name", "", "Remove by SSID instead of id")
	discoverCmd.Flags().DurationVar(&discoverWindow, "timeout", discovery.DefaultScanTimeout, "How long to listen for devices")
}

// resolveDeviceURL picks the device from --device, mDNS discovery or the
// settings file, in that order.
func resolveDeviceURL(ctx context.Context) (string, error) {
	if deviceFlag != "" || !useDiscovery {
		return settings.ResolveDevice(deviceFlag), nil
	}

	device, err := discovery.NewScanner().FindFirst(ctx)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w. Use --device to specify the device", err)
	}
	logging.Info("Using discovered device", zap.String("device", device.String()))
	return device.BaseURL(), nil
}

func newClient(ctx context.Context) (*wifiapi.Client, error) {
	url, err := resolveDeviceURL(ctx)
	if err != nil {
		return nil, err
	}
	return wifiapi.NewClient(url, wifiapi.WithTimeout(settings.Device.RequestTimeout)), nil
}

// deviceError adds the troubleshooting hint of a request failure.
func deviceError(err error) error {
	if hint := wifiapi.Hint(err); hint != "" {
		return fmt.Errorf("%w\n%s", err, hint)
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printMessage prints a device response message.
func printMessage(w io.Writer, msg *wifiapi.Message) error {
	if outputFormat == formatJSON {
		return printJSON(w, msg)
	}
	_, err := fmt.Fprintln(w, msg.Message)
	return err
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the networks saved on the device",
	Example: `  wifi-panel list
  wifi-panel list --device http://192.168.4.1 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		saved, err := client.Configured(cmd.Context())
		if err != nil {
			return deviceError(err)
		}

		out := cmd.OutOrStdout()
		if outputFormat == formatJSON {
			return printJSON(out, saved)
		}
		fmt.Fprintln(out, tui.SavedTable(saved, -1))
		fmt.Fprintln(out, view.RowCount(len(saved)))
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show the networks in range of the device",
	Long: `Show the device's last completed scan result, strongest first as reported
by the device. Strength is the RSSI offset into a 0-100 meter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		scanned, err := client.Scan(cmd.Context())
		if err != nil {
			return deviceError(err)
		}

		out := cmd.OutOrStdout()
		if outputFormat == formatJSON {
			return printJSON(out, scanned)
		}
		fmt.Fprintln(out, tui.ScannedTable(scanned, -1))
		fmt.Fprintln(out, view.RowCount(len(scanned)))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the device connection status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		status, err := client.Status(cmd.Context())
		if err != nil {
			return deviceError(err)
		}

		out := cmd.OutOrStdout()
		if outputFormat == formatJSON {
			return printJSON(out, status)
		}
		fmt.Fprintln(out, tui.StatusList(status))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <ssid>",
	Short: "Save a network on the device",
	Long: `Save a network on the device. The passphrase is prompted without echo when
--password is not given; leave it empty for an open network.`,
	Example: `  wifi-panel add cafe
  wifi-panel add cafe --password espresso1 --verify`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ssid := args[0]

		password := addPassword
		if !cmd.Flags().Changed("password") {
			p, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), ssid)
			if err != nil {
				return err
			}
			password = p
		}

		if err := wifiapi.ValidateCredentials(ssid, password); err != nil {
			return err
		}

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		msg, err := client.Add(cmd.Context(), ssid, password)
		if err != nil {
			return deviceError(err)
		}

		if addVerify {
			if _, err := wifiapi.VerifySaved(cmd.Context(), client, ssid); err != nil {
				return deviceError(err)
			}
		}
		return printMessage(cmd.OutOrStdout(), msg)
	},
}

// readPassword prompts on the terminal without echo, or reads one line when
// input is not a terminal.
func readPassword(in io.Reader, prompt io.Writer, ssid string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(prompt, "Password for %s: ", ssid)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a saved network by id or by --name",
	Example: `  wifi-panel remove 3
  wifi-panel remove --name cafe`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 1) == (removeName != "") {
			return errors.New("give either an id or --name")
		}

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		var msg *wifiapi.Message
		if removeName != "" {
			msg, err = client.DeleteByAPName(cmd.Context(), removeName)
		} else {
			id, convErr := strconv.Atoi(args[0])
			if convErr != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			msg, err = client.DeleteByID(cmd.Context(), id)
		}
		if err != nil {
			return deviceError(err)
		}
		return printMessage(cmd.OutOrStdout(), msg)
	},
}

var stopAPCmd = &cobra.Command{
	Use:   "stop-ap",
	Short: "Stop the device's setup access point",
	Long: `Stop the device's own access point so it continues in station mode with
the saved networks. This is the panel's "Start" action.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		msg, err := client.StopSoftAP(cmd.Context())
		if err != nil {
			return deviceError(err)
		}
		return printMessage(cmd.OutOrStdout(), msg)
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find devices on the local network over mDNS",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := discovery.NewScanner()
		scanner.Timeout = discoverWindow

		out := cmd.OutOrStdout()
		if outputFormat == formatText {
			fmt.Fprintf(out, "Scanning for devices (timeout: %s)...\n\n", discoverWindow)
		}

		devices, err := scanner.ScanForDevices(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if outputFormat == formatJSON {
			return printJSON(out, devices)
		}

		if len(devices) == 0 {
			fmt.Fprintln(out, "No devices found.")
			fmt.Fprintln(out, "\nTroubleshooting:")
			fmt.Fprintln(out, "  - Connect to the device's setup access point")
			fmt.Fprintln(out, "  - Try increasing --timeout")
			fmt.Fprintln(out, "  - Use --device to give the address directly")
			return nil
		}

		fmt.Fprintf(out, "Found %d device(s):\n\n", len(devices))
		for i, d := range devices {
			fmt.Fprintf(out, "%d. %s\n", i+1, d.Instance)
			fmt.Fprintf(out, "   URL:  %s\n", d.BaseURL())
			if mode := d.Mode(); mode != "" {
				fmt.Fprintf(out, "   Mode: %s\n", mode)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}
