package wifiapi

import (
	"encoding/json"
	"testing"
)

func TestAuthMode_Lookup(t *testing.T) {
	tests := []struct {
		mode   AuthMode
		want   string
		wantOK bool
	}{
		{0, "OPEN", true},
		{3, "WPA2-PSK", true},
		{10, "MAX", true},
		{11, "", false},
		{-1, "", false},
	}

	for _, tt := range tests {
		got, ok := tt.mode.Lookup()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("AuthMode(%d).Lookup() = %q, %v; want %q, %v", tt.mode, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAuthMode_String(t *testing.T) {
	if AuthMode(0).String() != "OPEN" {
		t.Errorf("String(0) = %s", AuthMode(0).String())
	}
	if AuthMode(42).String() != UnknownAuthMode {
		t.Errorf("String(42) = %s, want %s", AuthMode(42).String(), UnknownAuthMode)
	}
}

func TestAuthModes(t *testing.T) {
	modes := AuthModes()
	if len(modes) != 11 {
		t.Fatalf("len(AuthModes()) = %d, want 11", len(modes))
	}

	modes[0] = "mutated"
	if AuthMode(0).String() != "OPEN" {
		t.Error("AuthModes() must return a copy")
	}
}

func TestStatus_RoundTripKeepsOrderAndTypes(t *testing.T) {
	in := `{"z":1,"a":"text","m":null,"b":[1,2],"c":{"k":true}}`

	var s Status
	if err := json.Unmarshal([]byte(in), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != in {
		t.Errorf("Marshal() = %s, want %s", out, in)
	}

	wantText := []string{"1", "text", "null", "[1,2]", `{"k":true}`}
	for i, want := range wantText {
		if got := s[i].Text(); got != want {
			t.Errorf("s[%d].Text() = %q, want %q", i, got, want)
		}
	}
}

func TestStatus_RejectsNonObject(t *testing.T) {
	var s Status
	if err := json.Unmarshal([]byte(`[1,2]`), &s); err == nil {
		t.Error("Unmarshal() of an array should fail")
	}
}

func TestStatusOf(t *testing.T) {
	s, err := StatusOf("mode", "station", "rssi", -52)
	if err != nil {
		t.Fatalf("StatusOf() error = %v", err)
	}

	out, _ := json.Marshal(s)
	if string(out) != `{"mode":"station","rssi":-52}` {
		t.Errorf("Marshal() = %s", out)
	}

	if _, err := StatusOf("odd"); err == nil {
		t.Error("StatusOf() with odd arguments should fail")
	}
	if _, err := StatusOf(1, 2); err == nil {
		t.Error("StatusOf() with non-string key should fail")
	}
}

func TestScannedNetwork_RSSIForms(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{`-60`, -60, false},
		{`"-60"`, -60, false},
		{`" -48dBm"`, -48, false},
		{`"+3"`, 3, false},
		{`-59.9`, -59, false},
		{`null`, 0, false},
		{`"weak"`, 0, true},
		{`"-"`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var n ScannedNetwork
			err := json.Unmarshal([]byte(`{"ssid":"cafe","rssi":`+tt.raw+`,"channel":6}`), &n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if n.RSSI != tt.want {
				t.Errorf("RSSI = %d, want %d", n.RSSI, tt.want)
			}
			if n.SSID != "cafe" || n.Channel != 6 {
				t.Errorf("other fields lost: %+v", n)
			}
		})
	}
}

func TestScannedNetwork_MissingRSSI(t *testing.T) {
	var n ScannedNetwork
	if err := json.Unmarshal([]byte(`{"ssid":"cafe"}`), &n); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if n.RSSI != 0 {
		t.Errorf("RSSI = %d, want 0", n.RSSI)
	}
}

func TestStatus_MarshalEscapesKeys(t *testing.T) {
	var s Status
	if err := json.Unmarshal([]byte(`{"a\u0001b":1,"quote\"d":2}`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back Status
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-Unmarshal(%s) error = %v", out, err)
	}
	if len(back) != 2 || back[0].Name != "a\u0001b" || back[1].Name != `quote"d` {
		t.Errorf("names = %+v", back)
	}
}
