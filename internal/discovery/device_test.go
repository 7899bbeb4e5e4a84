package discovery

import (
	"encoding/json"
	"testing"
)

func TestDevice_BaseURL(t *testing.T) {
	tests := []struct {
		ip   string
		port int
		want string
	}{
		{"192.168.4.1", 80, "http://192.168.4.1:80"},
		{"10.0.0.5", 8081, "http://10.0.0.5:8081"},
		{"fe80::1", 80, "http://[fe80::1]:80"},
	}

	for _, tt := range tests {
		d := &Device{IP: tt.ip, Port: tt.port}
		if got := d.BaseURL(); got != tt.want {
			t.Errorf("BaseURL() = %s, want %s", got, tt.want)
		}
	}
}

func TestDevice_String(t *testing.T) {
	d := &Device{Instance: "esp", IP: "192.168.4.1", Port: 80}
	if got := d.String(); got != "esp at http://192.168.4.1:80" {
		t.Errorf("String() = %s", got)
	}

	d.TXT = map[string]string{ModeKey: "softap"}
	if got := d.String(); got != "esp [softap] at http://192.168.4.1:80" {
		t.Errorf("String() = %s", got)
	}
}

func TestDevice_ModeWithoutTXT(t *testing.T) {
	if mode := (&Device{}).Mode(); mode != "" {
		t.Errorf("Mode() = %q, want empty", mode)
	}
}

func TestDevice_JSON(t *testing.T) {
	d := Device{Instance: "esp", IP: "192.168.4.1", Port: 80}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := back["txt"]; ok {
		t.Error("empty TXT should be omitted")
	}
	if back["instance"] != "esp" {
		t.Errorf("instance = %v", back["instance"])
	}
}
