package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/wifipanel/internal/devicesim"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// Simulate command flags
var (
	simListen      string
	simStore       string
	simStorePath   string
	simNoAdvertise bool
	simPanelListen string
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simListen, "listen", "", "Address for the simulated device (default from config, :8081)")
	simulateCmd.Flags().StringVar(&simStore, "store", "", "Saved network store: file, sqlite or memory")
	simulateCmd.Flags().StringVar(&simStorePath, "store-path", "", "File or database path for the store")
	simulateCmd.Flags().BoolVar(&simNoAdvertise, "no-advertise", false, "Do not register the simulator over mDNS")
	simulateCmd.Flags().StringVar(&simPanelListen, "panel", "", "Also serve the web panel for the simulator on this address")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated device",
	Long: `Run a stand-in device serving the /api/wifi endpoints and the firmware's
static setup page. Saved networks persist in a JSON file (the firmware's
wifi-aps.json format), a SQLite database or memory.`,
	Example: `  # Simulated device on :8081 with the panel on :8080
  wifi-panel simulate --panel :8080

  # Keep saved networks in SQLite
  wifi-panel simulate --store sqlite --store-path sim.db`,
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg := settings.Simulator
	if simListen != "" {
		cfg.Listen = simListen
	}
	if simStore != "" {
		cfg.Store = simStore
	}
	if simStorePath != "" {
		cfg.StorePath = simStorePath
	}
	if simNoAdvertise {
		cfg.Advertise = false
	}

	store, err := cfg.OpenStore()
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	defer store.Close()

	opts := []devicesim.Option{
		devicesim.WithStore(store),
		devicesim.WithScanMaxAge(cfg.ScanMaxAge),
	}
	if cfg.Hostname != "" {
		opts = append(opts, devicesim.WithHostname(cfg.Hostname))
	}
	if len(cfg.Networks) > 0 {
		opts = append(opts, devicesim.WithScanner(devicesim.StaticScanner(cfg.ScannedNetworks())))
	}
	sim := devicesim.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// bind first so the panel's initial load finds the device listening
	ln, err := devicesim.Listen(cfg.Listen)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Printf("Simulated device on %s (store: %s)\n", ln.Addr(), cfg.Store)
		return sim.ServeListener(gctx, ln, cfg.Advertise)
	})
	if simPanelListen != "" {
		g.Go(func() error {
			client := wifiapi.NewClient(localURL(ln.Addr()), wifiapi.WithTimeout(settings.Device.RequestTimeout))
			return servePanel(gctx, client, simPanelListen, false)
		})
	}
	return g.Wait()
}

// localURL turns a bound address into a URL a local client can dial. Wildcard
// hosts become 127.0.0.1.
func localURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}
	host := "127.0.0.1"
	if tcp.IP != nil && !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}
