// Package config loads and saves the WiFi panel settings file.
//
// The file lives in the user's configuration directory
// ($XDG_CONFIG_HOME/wifipanel/config.yaml on Linux) unless --config names
// another one. It is versioned, written atomically, and every field is
// optional: a missing file or a missing key falls back to the defaults.
//
// Example:
//
//	version: 1
//	device:
//	    url: http://192.168.4.1
//	    request_timeout: 10s
//	panel:
//	    listen: :8080
//	    saved_refresh: 1.5s
//	    scan_poll: 5m0s
//	    snack_timeout: 5s
//	simulator:
//	    listen: :8081
//	    store: file
//	    store_path: wifi-aps.json
//	    scan_max_age: 30s
//	    advertise: true
//	devices:
//	    kitchen: http://192.168.1.42
package config
