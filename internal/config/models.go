package config

import (
	"time"

	"github.com/muurk/wifipanel/internal/devicesim"
	"github.com/muurk/wifipanel/internal/panel"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// CurrentVersion is the settings file format version
const CurrentVersion = 1

// Settings is the root of the settings file.
type Settings struct {
	// Version is the config file format version (currently 1)
	Version int `yaml:"version"`

	// Device is the device the panel talks to
	Device DeviceSettings `yaml:"device"`

	// Panel configures the web and terminal panel
	Panel PanelSettings `yaml:"panel"`

	// Simulator configures `wifi-panel simulate`
	Simulator SimulatorSettings `yaml:"simulator"`

	// Devices maps short names to device URLs, usable as --device values
	Devices map[string]string `yaml:"devices,omitempty"`
}

// DeviceSettings locates the device API.
type DeviceSettings struct {
	// URL is the device origin (e.g., "http://192.168.4.1")
	URL string `yaml:"url"`

	// RequestTimeout bounds every API request
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PanelSettings holds the panel timings and web listener.
type PanelSettings struct {
	Listen       string        `yaml:"listen"`
	Title        string        `yaml:"title,omitempty"`
	SavedRefresh time.Duration `yaml:"saved_refresh"`
	ScanPoll     time.Duration `yaml:"scan_poll"`
	SnackTimeout time.Duration `yaml:"snack_timeout"`
}

// SimulatorSettings configures the device simulator.
type SimulatorSettings struct {
	Listen string `yaml:"listen"`

	// Store is one of "file", "sqlite" or "memory"
	Store     string `yaml:"store"`
	StorePath string `yaml:"store_path"`

	ScanMaxAge time.Duration `yaml:"scan_max_age"`
	Advertise  bool          `yaml:"advertise"`
	Hostname   string        `yaml:"hostname,omitempty"`

	// Networks replaces the simulated scan result when set
	Networks []NetworkSeed `yaml:"networks,omitempty"`
}

// NetworkSeed is one simulated network in range.
type NetworkSeed struct {
	SSID       string `yaml:"ssid"`
	RSSI       int    `yaml:"rssi"`
	Encryption int    `yaml:"encryption"`
	Channel    int    `yaml:"channel"`
}

// Store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Default values.
const (
	DefaultDeviceURL    = "http://192.168.4.1"
	DefaultPanelListen  = ":8080"
	DefaultSimListen    = ":8081"
	DefaultSimStore     = StoreFile
	DefaultSimStorePath = devicesim.DefaultStoreFile
)

// Default returns settings with every field at its default.
func Default() *Settings {
	return &Settings{
		Version: CurrentVersion,
		Device: DeviceSettings{
			URL:            DefaultDeviceURL,
			RequestTimeout: wifiapi.DefaultTimeout,
		},
		Panel: PanelSettings{
			Listen:       DefaultPanelListen,
			SavedRefresh: panel.DefaultSavedRefresh,
			ScanPoll:     panel.DefaultScanPoll,
			SnackTimeout: panel.DefaultSnackTimeout,
		},
		Simulator: SimulatorSettings{
			Listen:     DefaultSimListen,
			Store:      DefaultSimStore,
			StorePath:  DefaultSimStorePath,
			ScanMaxAge: devicesim.DefaultScanMaxAge,
			Advertise:  true,
		},
		Devices: make(map[string]string),
	}
}

// applyDefaults fills zero values left out of a partial file. Advertise is
// left alone: false is a valid choice.
func (s *Settings) applyDefaults() {
	d := Default()

	if s.Device.URL == "" {
		s.Device.URL = d.Device.URL
	}
	if s.Device.RequestTimeout <= 0 {
		s.Device.RequestTimeout = d.Device.RequestTimeout
	}
	if s.Panel.Listen == "" {
		s.Panel.Listen = d.Panel.Listen
	}
	if s.Panel.SavedRefresh <= 0 {
		s.Panel.SavedRefresh = d.Panel.SavedRefresh
	}
	if s.Panel.ScanPoll <= 0 {
		s.Panel.ScanPoll = d.Panel.ScanPoll
	}
	if s.Panel.SnackTimeout <= 0 {
		s.Panel.SnackTimeout = d.Panel.SnackTimeout
	}
	if s.Simulator.Listen == "" {
		s.Simulator.Listen = d.Simulator.Listen
	}
	if s.Simulator.Store == "" {
		s.Simulator.Store = d.Simulator.Store
	}
	if s.Simulator.StorePath == "" {
		s.Simulator.StorePath = d.Simulator.StorePath
	}
	if s.Simulator.ScanMaxAge < 0 {
		s.Simulator.ScanMaxAge = d.Simulator.ScanMaxAge
	}
	if s.Devices == nil {
		s.Devices = make(map[string]string)
	}
}

// ResolveDevice returns the URL for a --device value: a name from Devices,
// or the value itself. An empty value selects Device.URL.
func (s *Settings) ResolveDevice(nameOrURL string) string {
	if nameOrURL == "" {
		return s.Device.URL
	}
	if url, ok := s.Devices[nameOrURL]; ok {
		return url
	}
	return nameOrURL
}

// ScannedNetworks converts the network seeds for the simulator.
func (s SimulatorSettings) ScannedNetworks() []wifiapi.ScannedNetwork {
	out := make([]wifiapi.ScannedNetwork, 0, len(s.Networks))
	for _, n := range s.Networks {
		out = append(out, wifiapi.ScannedNetwork{
			SSID:           n.SSID,
			RSSI:           n.RSSI,
			EncryptionType: wifiapi.AuthMode(n.Encryption),
			Channel:        n.Channel,
		})
	}
	return out
}
