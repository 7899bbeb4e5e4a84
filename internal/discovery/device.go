package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// TXT record keys published by devices.
const (
	PathKey = "path"
	ModeKey = "mode"
)

// Device is one mDNS answer for a host serving the WiFi panel API.
type Device struct {
	Instance string            `json:"instance"`
	Hostname string            `json:"hostname"`
	IP       string            `json:"ip"`
	Port     int               `json:"port"`
	TXT      map[string]string `json:"txt,omitempty"`
	SeenAt   time.Time         `json:"seen_at"`
}

// BaseURL is the address to hand to wifiapi.NewClient.
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// Mode is the advertised radio mode ("softap" or "station"), if any.
func (d *Device) Mode() string {
	return d.TXT[ModeKey]
}

func (d *Device) String() string {
	if mode := d.Mode(); mode != "" {
		return fmt.Sprintf("%s [%s] at %s", d.Instance, mode, d.BaseURL())
	}
	return fmt.Sprintf("%s at %s", d.Instance, d.BaseURL())
}
