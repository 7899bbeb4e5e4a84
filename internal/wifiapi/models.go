package wifiapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SavedNetwork is a credential pair persisted on the device.
type SavedNetwork struct {
	ID     int    `json:"id"`
	APName string `json:"apName"`
	APPass string `json:"apPass"`
}

// HasPassword reports whether the saved network carries a passphrase.
// The passphrase itself is never displayed.
func (n SavedNetwork) HasPassword() bool {
	return n.APPass != ""
}

// ScannedNetwork is one entry of a scan result. Scan results are replaced
// wholesale on every poll.
type ScannedNetwork struct {
	SSID           string   `json:"ssid"`
	RSSI           int      `json:"rssi"` // dBm, more negative is weaker
	EncryptionType AuthMode `json:"encryptionType"`
	Channel        int      `json:"channel"`
}

// UnmarshalJSON accepts rssi as a JSON number or as a numeric string
// ("-60", "-60 dBm"). Fractions are truncated toward zero.
func (n *ScannedNetwork) UnmarshalJSON(data []byte) error {
	type plain ScannedNetwork
	aux := struct {
		*plain
		RSSI json.RawMessage `json:"rssi"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	rssi, err := parseRSSI(aux.RSSI)
	if err != nil {
		return fmt.Errorf("scan entry %q: %w", n.SSID, err)
	}
	n.RSSI = rssi
	return nil
}

func parseRSSI(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		v, ok := leadingInt(text)
		if !ok {
			return 0, fmt.Errorf("rssi %q is not a number", text)
		}
		return v, nil
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("rssi %s is not a number", raw)
	}
	return int(f), nil
}

// leadingInt reads an optionally signed run of digits after leading
// whitespace and ignores whatever follows it.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// Encrypted reports whether the network uses any encryption scheme.
func (n ScannedNetwork) Encrypted() bool {
	return n.EncryptionType > 0
}

// Message is the body returned by mutations and actions.
type Message struct {
	Message string `json:"message"`
}

// AuthMode indexes the fixed list of encryption scheme labels.
type AuthMode int

// authModes is ordered; the index is the wire value of encryptionType.
var authModes = [...]string{
	"OPEN",
	"WEP",
	"WPA-PSK",
	"WPA2-PSK",
	"WPA-WPA2-PSK",
	"WPA2-ENTERPRISE",
	"WPA3-PSK",
	"WPA2-WPA3-PSK",
	"WAPI-PSK",
	"OWE",
	"MAX",
}

// UnknownAuthMode is the label rendered for an out-of-range encryption type.
const UnknownAuthMode = "UNKNOWN"

// AuthModes returns the labels in wire order.
func AuthModes() []string {
	out := make([]string, len(authModes))
	copy(out, authModes[:])
	return out
}

// Lookup returns the label for m. Out-of-range values are rejected with
// ok=false rather than clamped.
func (m AuthMode) Lookup() (string, bool) {
	if m < 0 || int(m) >= len(authModes) {
		return "", false
	}
	return authModes[m], true
}

// String returns the label, or UnknownAuthMode when m is out of range.
func (m AuthMode) String() string {
	if name, ok := m.Lookup(); ok {
		return name
	}
	return UnknownAuthMode
}

// Property is one name/value pair of a status snapshot. Value keeps the raw
// JSON so the snapshot can be passed through without interpretation.
type Property struct {
	Name  string
	Value json.RawMessage
}

// Text returns the value as display text: strings are unquoted, everything
// else is shown as its JSON literal.
func (p Property) Text() string {
	var s string
	if err := json.Unmarshal(p.Value, &s); err == nil {
		return s
	}
	return string(p.Value)
}

// Status is the device's flat status map. It decodes into a slice so that the
// order the device sent is the order it is rendered in.
type Status []Property

// Get returns the display text of the named property.
func (s Status) Get(name string) (string, bool) {
	for _, p := range s {
		if p.Name == name {
			return p.Text(), true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (s *Status) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("status: expected JSON object, got %v", tok)
	}

	out := Status{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("status: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("status: property %q: %w", name, err)
		}
		out = append(out, Property{Name: name, Value: raw})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// MarshalJSON encodes the snapshot as an object in slice order.
func (s Status) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, p := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		if len(p.Value) == 0 {
			b.WriteString("null")
		} else {
			b.Write(p.Value)
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// StatusOf builds a Status from name/value pairs, marshalling each value.
// Used by the device simulator to emit a snapshot in a fixed order.
func StatusOf(pairs ...any) (Status, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("status: odd number of arguments")
	}
	out := make(Status, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("status: key %v is not a string", pairs[i])
		}
		raw, err := json.Marshal(pairs[i+1])
		if err != nil {
			return nil, fmt.Errorf("status: property %q: %w", name, err)
		}
		out = append(out, Property{Name: name, Value: raw})
	}
	return out, nil
}
