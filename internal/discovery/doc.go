// Package discovery finds WiFi panel devices on the local network over mDNS
// and advertises the simulator so it can be found the same way.
//
// A device is an "_http._tcp" instance whose TXT record holds
// "path=/api/wifi"; other HTTP services are skipped. The optional "mode" TXT
// key reports whether the device still runs its setup access point.
//
//	d, err := discovery.NewScanner().FindFirst(ctx)
//	if err != nil {
//	    return err
//	}
//	client := wifiapi.NewClient(d.BaseURL())
//
// Browsing needs multicast on UDP 5353.
package discovery
