package devicesim

import (
	"context"
	"sort"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/muurk/wifipanel/internal/wifiapi"
)

// Scanner produces scan results. Implementations may be slow; the simulator
// caches what they return.
type Scanner interface {
	Scan(ctx context.Context) ([]wifiapi.ScannedNetwork, error)
}

// StaticScanner always reports the same networks.
type StaticScanner []wifiapi.ScannedNetwork

func (s StaticScanner) Scan(ctx context.Context) ([]wifiapi.ScannedNetwork, error) {
	return append([]wifiapi.ScannedNetwork(nil), s...), nil
}

// DefaultNetworks is what the simulator reports when no networks are
// configured.
func DefaultNetworks() []wifiapi.ScannedNetwork {
	return []wifiapi.ScannedNetwork{
		{SSID: "home", RSSI: -48, EncryptionType: 3, Channel: 1},
		{SSID: "cafe", RSSI: -60, EncryptionType: 3, Channel: 6},
		{SSID: "office-5", RSSI: -67, EncryptionType: 5, Channel: 11},
		{SSID: "neighbour", RSSI: -81, EncryptionType: 7, Channel: 6},
		{SSID: "guest", RSSI: -74, EncryptionType: 0, Channel: 1},
	}
}

// scanCache answers with the last completed scan and rescans once it is
// older than maxAge. A zero maxAge rescans on every request.
type scanCache struct {
	scanner Scanner
	clock   clock.PassiveClock
	maxAge  time.Duration

	mu      sync.Mutex
	result  []wifiapi.ScannedNetwork
	scanned time.Time
	scans   int
}

func (c *scanCache) get(ctx context.Context) ([]wifiapi.ScannedNetwork, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scans > 0 && c.maxAge > 0 && c.clock.Since(c.scanned) < c.maxAge {
		return c.result, nil
	}

	result, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	// strongest first
	sort.SliceStable(result, func(i, j int) bool { return result[i].RSSI > result[j].RSSI })

	c.result = result
	c.scanned = c.clock.Now()
	c.scans++
	return result, nil
}

func (c *scanCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scans
}

// selectBest returns the strongest scanned network that is saved.
func selectBest(saved []wifiapi.SavedNetwork, scanned []wifiapi.ScannedNetwork) (wifiapi.ScannedNetwork, bool) {
	known := make(map[string]bool, len(saved))
	for _, n := range saved {
		known[n.APName] = true
	}

	var (
		best  wifiapi.ScannedNetwork
		found bool
	)
	for _, n := range scanned {
		if known[n.SSID] && (!found || n.RSSI > best.RSSI) {
			best = n
			found = true
		}
	}
	return best, found
}
