// Package wifiapi provides an HTTP client for a device's WiFi REST API.
//
// The device exposes a small JSON namespace under /api/wifi for managing the
// access points it knows about. This package maps each operation onto one
// request and returns the decoded body; nothing is cached and nothing is
// retried.
//
// # Endpoints
//
//	GET  /api/wifi/configlist   saved networks
//	GET  /api/wifi/scan         last scan result
//	GET  /api/wifi/status       flat status map (order preserved)
//	POST /api/wifi/add          {apName, apPass}
//	POST /api/wifi/id           {id}
//	POST /api/wifi/apName       {apName}
//	POST /api/wifi/softAp/stop  stop the device's own access point
//
// # Usage Example
//
//	client := wifiapi.NewClient("http://192.168.4.1")
//
//	saved, err := client.Configured(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, err := client.Add(ctx, "home", "correct horse")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(msg.Message)
//
// # Error Handling
//
// Every failure is a *RequestError. For HTTP failures the message is
// "<url>: <code> <status text>"; the error kind (network, HTTP, parse) is kept
// for logging and for IsHTTPError and friends.
package wifiapi
