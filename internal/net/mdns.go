// Package net shares the drawing with viewers on the local network.
package net

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_localsketch._tcp"

// Advertise announces the live view on port over mDNS until the returned
// server is shut down.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, []string{"LocalSketch live view"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse queries the network for live views for timeout and reports each
// address as host:port.
func Browse(timeout time.Duration, found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if addr, ok := entryAddr(e); ok {
				found(addr)
			}
		}
	}()

	err := mdns.Query(&mdns.QueryParam{
		Service:     ServiceType,
		Domain:      "local",
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	})
	close(entries)
	<-done
	if err != nil {
		return fmt.Errorf("mDNS browse: %w", err)
	}
	return nil
}

func entryAddr(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return "", false
	}
	return fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port), true
}
