package wirebus

import (
	"fmt"
	"net"
	"strconv"

	buserrors "github.com/randalmurphal/wirebus/pkg/wirebus/errors"
	"github.com/randalmurphal/wirebus/pkg/wirebus/peer"
)

// resolveAdvertised determines the address this node advertises to peers.
// An explicit baseUrl wins; otherwise the configured host is combined with
// the bound port; a wildcard or empty host falls back to the first
// non-loopback interface address. The result is canonical per
// peer.Normalize so it compares equal to the same address learned from a
// peer's report.
func resolveAdvertised(cfg nodeConfig, boundPort int) (string, error) {
	if cfg.baseURL != "" {
		addr, err := peer.Normalize(cfg.baseURL)
		if err != nil {
			return "", &buserrors.ConfigError{Field: "baseUrl", Reason: err.Error()}
		}
		return addr, nil
	}

	host := cfg.host
	if isWildcardHost(host) {
		guessed, err := firstRoutableHost()
		if err != nil {
			return "", &buserrors.ConfigError{Field: "host", Reason: err.Error()}
		}
		host = guessed
	}

	addr, err := peer.Normalize("http://" + net.JoinHostPort(host, strconv.Itoa(boundPort)))
	if err != nil {
		return "", &buserrors.ConfigError{Field: "host", Reason: err.Error()}
	}
	return addr, nil
}

// isWildcardHost reports whether host names every interface rather than a
// reachable one.
func isWildcardHost(host string) bool {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		return true
	}
	return false
}

// firstRoutableHost picks the first non-loopback unicast address of any
// interface, preferring IPv4. A machine with no external interface falls
// back to loopback so it can still form a usable local address.
func firstRoutableHost() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("listing interface addresses: %w", err)
	}

	v6 := ""
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || !ipNet.IP.IsGlobalUnicast() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
		if v6 == "" {
			v6 = ipNet.IP.String()
		}
	}
	if v6 != "" {
		return v6, nil
	}
	return "127.0.0.1", nil
}
