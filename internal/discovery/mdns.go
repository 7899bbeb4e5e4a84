package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

const (
	// ServiceType is the mDNS service type devices advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultScanTimeout is how long a scan listens by default
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 80
)

// Scanner browses the local network for devices.
type Scanner struct {
	Timeout time.Duration
}

// NewScanner returns a scanner using DefaultScanTimeout.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// browse passes every device answer to visit until visit returns false, the
// timeout passes or ctx is done.
func (s *Scanner) browse(ctx context.Context, visit func(*Device) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		stopped := false
		// keep draining after stop so the resolver never blocks
		for entry := range entries {
			if stopped {
				continue
			}
			if d := parseServiceEntry(entry); d != nil && !visit(d) {
				stopped = true
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	<-ctx.Done()

	// the resolver closes entries shortly after ctx is done
	select {
	case <-drained:
	case <-time.After(time.Second):
	}
	return nil
}

// ScanForDevices lists every device answering within the timeout, one per
// address.
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	var (
		mu      sync.Mutex
		devices []*Device
		seen    = make(map[string]bool)
	)

	err := s.browse(ctx, func(d *Device) bool {
		mu.Lock()
		defer mu.Unlock()
		if !seen[d.BaseURL()] {
			seen[d.BaseURL()] = true
			devices = append(devices, d)
			logging.Debug("Discovered device", zap.String("device", d.String()))
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]*Device{}, devices...), nil
}

// FindFirst returns the first device that answers.
func (s *Scanner) FindFirst(ctx context.Context) (*Device, error) {
	var (
		mu    sync.Mutex
		first *Device
	)

	err := s.browse(ctx, func(d *Device) bool {
		mu.Lock()
		defer mu.Unlock()
		if first == nil {
			first = d
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if first == nil {
		return nil, fmt.Errorf("no device found within %s", s.Timeout)
	}
	return first, nil
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil unless the entry advertises the WiFi API path.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	txt := parseTXT(entry.Text)
	if txt[PathKey] != wifiapi.Endpoint {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Device{
		Instance: entry.Instance,
		Hostname: entry.HostName,
		IP:       ip,
		Port:     port,
		TXT:      txt,
		SeenAt:   time.Now(),
	}
}

// parseTXT splits "key=value" TXT records; a bare key maps to "".
func parseTXT(records []string) map[string]string {
	txt := make(map[string]string, len(records))
	for _, rec := range records {
		k, v, _ := strings.Cut(rec, "=")
		txt[k] = v
	}
	return txt
}

// Advertisement is a running mDNS registration
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers instance as an HTTP service on port exposing the WiFi
// API. extra TXT records ("key=value") are appended.
func Advertise(instance string, port int, extra ...string) (*Advertisement, error) {
	txt := append([]string{PathKey + "=" + wifiapi.Endpoint}, extra...)

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising over mDNS",
		zap.String("instance", instance),
		zap.Int("port", port))
	return &Advertisement{server: server}, nil
}

// SetText replaces the extra TXT records
func (a *Advertisement) SetText(extra ...string) {
	a.server.SetText(append([]string{PathKey + "=" + wifiapi.Endpoint}, extra...))
}

// Shutdown withdraws the registration
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}
