package webfetch

import (
	"net"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnsafeURL marks URLs rejected by the request-forgery guard.
var ErrUnsafeURL = eris.New("url rejected by safety check")

var blockedHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
	"0.0.0.0":   {},
}

var blockedSuffixes = []string{".local", ".internal", ".localhost", ".localdomain"}

// Ranges net.IP has no predicate for: IPv4 future use, IETF protocol
// assignments, and the benchmarking range.
var reservedRanges = func() []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range []string{"240.0.0.0/4", "192.0.0.0/24", "198.18.0.0/15"} {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		nets = append(nets, network)
	}
	return nets
}()

// checkURL validates that the URL is safe to fetch before any socket is opened.
// It rejects non-HTTP schemes, well-known local hostnames, internal domain
// suffixes, and any address in a loopback/private/link-local/reserved range.
// Hostnames are resolved so that a public name pointing at an internal address
// is rejected too.
func (f *Fetcher) checkURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return eris.Wrap(ErrUnsafeURL, "parsing url")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return eris.Wrap(ErrUnsafeURL, "only http and https are supported")
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return eris.Wrap(ErrUnsafeURL, "missing hostname")
	}

	if _, blocked := blockedHosts[hostname]; blocked {
		return eris.Wrap(ErrUnsafeURL, "local host is not allowed")
	}

	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(hostname, suffix) {
			return eris.Wrap(ErrUnsafeURL, "internal network domain is not allowed")
		}
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if reason := restrictedIPReason(ip); reason != "" {
			return eris.Wrap(ErrUnsafeURL, reason)
		}
		return nil
	}

	// Resolution failures are left for the actual request to surface.
	ips, err := f.lookupIP(hostname)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if reason := restrictedIPReason(ip); reason != "" {
			return eris.Wrapf(ErrUnsafeURL, "hostname resolves to a restricted address: %s", ip)
		}
	}

	return nil
}

func restrictedIPReason(ip net.IP) string {
	switch {
	case ip.IsLoopback():
		return "loopback address is not allowed"
	case ip.IsPrivate():
		return "private address is not allowed"
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return "link-local address is not allowed"
	case ip.IsUnspecified():
		return "unspecified address is not allowed"
	case ip.IsMulticast():
		return "multicast address is not allowed"
	case isReserved(ip):
		return "reserved address is not allowed"
	}
	return ""
}

func isReserved(ip net.IP) bool {
	for _, network := range reservedRanges {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
