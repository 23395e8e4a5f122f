package net

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutgoingIP(t *testing.T) {
	ip, err := OutgoingIP()
	require.NoError(t, err)
	assert.NotNil(t, net.ParseIP(ip))
}

func TestShareURL(t *testing.T) {
	assert.Equal(t, "http://192.168.1.20:8888/", ShareURL("192.168.1.20", 8888))
	assert.Equal(t, "http://[fe80::1]:80/", ShareURL("fe80::1", 80))
}

func TestEntryAddr(t *testing.T) {
	addr, ok := entryAddr(&mdns.ServiceEntry{AddrV4: net.IPv4(10, 0, 0, 7), Port: 8888})
	require.True(t, ok)
	assert.Equal(t, "10.0.0.7:8888", addr)

	_, ok = entryAddr(&mdns.ServiceEntry{Port: 8888})
	assert.False(t, ok)
	_, ok = entryAddr(&mdns.ServiceEntry{AddrV4: net.IPv4(10, 0, 0, 7)})
	assert.False(t, ok)
	_, ok = entryAddr(nil)
	assert.False(t, ok)
}
