package wifiapi

import (
	"context"
	"fmt"
	"sort"
)

// Configured returns the networks saved on the device.
func (c *Client) Configured(ctx context.Context) ([]SavedNetwork, error) {
	var out []SavedNetwork
	if err := c.Request(ctx, c.URL("/configlist"), MethodGet, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Scan returns the device's last completed scan result. The device decides
// whether that triggers a fresh scan; the client does not model a scan in
// progress.
func (c *Client) Scan(ctx context.Context) ([]ScannedNetwork, error) {
	var out []ScannedNetwork
	if err := c.Request(ctx, c.URL("/scan"), MethodGet, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status returns the device's connection status snapshot.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var out Status
	if err := c.Request(ctx, c.URL("/status"), MethodGet, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddRequest is the body of POST /add
type AddRequest struct {
	APName string `json:"apName"`
	APPass string `json:"apPass"`
}

// Add registers a saved network.
func (c *Client) Add(ctx context.Context, apName, apPass string) (*Message, error) {
	return c.post(ctx, "/add", AddRequest{APName: apName, APPass: apPass})
}

// DeleteByIDRequest is the body of POST /id
type DeleteByIDRequest struct {
	ID int `json:"id"`
}

// DeleteByID removes a saved network by its device-assigned id.
func (c *Client) DeleteByID(ctx context.Context, id int) (*Message, error) {
	return c.post(ctx, "/id", DeleteByIDRequest{ID: id})
}

// DeleteByAPNameRequest is the body of POST /apName
type DeleteByAPNameRequest struct {
	APName string `json:"apName"`
}

// DeleteByAPName removes a saved network by its SSID.
func (c *Client) DeleteByAPName(ctx context.Context, apName string) (*Message, error) {
	return c.post(ctx, "/apName", DeleteByAPNameRequest{APName: apName})
}

// StopSoftAP asks the device to stop its own access point.
func (c *Client) StopSoftAP(ctx context.Context) (*Message, error) {
	return c.post(ctx, "/softAp/stop", nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (*Message, error) {
	var out Message
	if err := c.Request(ctx, c.URL(path), MethodPost, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActionFunc is a named trigger bound to a panel button.
type ActionFunc func(ctx context.Context) (*Message, error)

const (
	// ActionStart stops the soft-AP so the device starts in station mode
	ActionStart = "start"
	// ActionScan fetches the scan results again
	ActionScan = "scan"
)

// Actions returns the named triggers exposed as panel buttons.
func (c *Client) Actions() map[string]ActionFunc {
	return map[string]ActionFunc{
		ActionStart: c.StopSoftAP,
		ActionScan: func(ctx context.Context) (*Message, error) {
			nets, err := c.Scan(ctx)
			if err != nil {
				return nil, err
			}
			return &Message{Message: fmt.Sprintf("%d network%s found", len(nets), plural(len(nets)))}, nil
		},
	}
}

// ActionNames returns the names of actions in a stable order.
func ActionNames(actions map[string]ActionFunc) []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
