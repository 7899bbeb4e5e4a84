package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		dir, err := GetConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/tmp/xdg", "wifipanel"), dir)
		return
	}

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Contains(t, dir, "wifipanel")
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(path))
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), s)
	assert.Equal(t, "http://192.168.4.1", s.Device.URL)
	assert.Equal(t, 1500*time.Millisecond, s.Panel.SavedRefresh)
	assert.Equal(t, 5*time.Minute, s.Panel.ScanPoll)
	assert.Equal(t, 5*time.Second, s.Panel.SnackTimeout)
	assert.Equal(t, 10*time.Second, s.Device.RequestTimeout)
	assert.Equal(t, ":8080", s.Panel.Listen)
	assert.Equal(t, ":8081", s.Simulator.Listen)
	assert.Equal(t, "wifi-aps.json", s.Simulator.StorePath)
	assert.Equal(t, 30*time.Second, s.Simulator.ScanMaxAge)
	assert.True(t, s.Simulator.Advertise)
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
device:
  url: http://10.0.0.7
panel:
  scan_poll: 1m
simulator:
  advertise: false
  networks:
    - ssid: lab
      rssi: -55
      encryption: 3
      channel: 36
devices:
  kitchen: http://192.168.1.42
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.7", s.Device.URL)
	assert.Equal(t, time.Minute, s.Panel.ScanPoll)
	assert.Equal(t, 1500*time.Millisecond, s.Panel.SavedRefresh)
	assert.False(t, s.Simulator.Advertise)

	nets := s.Simulator.ScannedNetworks()
	require.Len(t, nets, 1)
	assert.Equal(t, "lab", nets[0].SSID)
	assert.Equal(t, "WPA2-PSK", nets[0].EncryptionType.String())

	assert.Equal(t, "http://192.168.1.42", s.ResolveDevice("kitchen"))
	assert.Equal(t, "http://10.0.0.9", s.ResolveDevice("http://10.0.0.9"))
	assert.Equal(t, "http://10.0.0.7", s.ResolveDevice(""))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "version: [", "failed to parse"},
		{"wrong version", "version: 2\n", "unsupported config version"},
		{"bad store", "version: 1\nsimulator:\n  store: redis\n", "simulator.store"},
		{"empty device", "version: 1\ndevices:\n  broken: \"\"\n", "devices.broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	s := Default()
	s.Device.URL = "http://esp.local"
	s.Panel.ScanPoll = 90 * time.Second
	s.Devices["lab"] = "http://10.1.1.1"
	require.NoError(t, s.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# WiFi panel settings"))
	assert.Contains(t, string(data), "scan_poll: 1m30s")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	for _, kind := range []string{StoreMemory, StoreFile, StoreSQLite} {
		t.Run(kind, func(t *testing.T) {
			sim := Default().Simulator
			sim.Store = kind
			sim.StorePath = filepath.Join(dir, kind+".data")

			store, err := sim.OpenStore()
			require.NoError(t, err)
			assert.NoError(t, store.Close())
		})
	}

	sim := Default().Simulator
	sim.Store = "redis"
	_, err := sim.OpenStore()
	assert.Error(t, err)
}
