package port

import (
	"fmt"
	"net"
	"sort"

	"github.com/shinji-kodama/tunnel-launcher/internal/model"
)

// LANURLs returns http://<ip>:<port> for every IPv4 address on an
// interface that is up and not a loopback, sorted and deduplicated.
//
// These are the addresses other machines on the same network can use
// without going through the tunnel. An empty slice is returned when no
// such interface exists.
func LANURLs(p model.Port) ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	var addrs []net.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		ifAddrs, err := iface.Addrs()
		if err != nil {
			// One unreadable interface should not hide the others.
			continue
		}
		addrs = append(addrs, ifAddrs...)
	}

	return urlsFromAddrs(addrs, p), nil
}

// urlsFromAddrs keeps non-loopback IPv4 addresses and formats them as
// URLs for port p.
func urlsFromAddrs(addrs []net.Addr, p model.Port) []string {
	seen := make(map[string]bool)
	urls := make([]string, 0, len(addrs))

	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}

		ip4 := ip.To4()
		if ip4 == nil || ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
			continue
		}

		u := fmt.Sprintf("http://%s:%d", ip4.String(), int(p))
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	sort.Strings(urls)
	return urls
}
