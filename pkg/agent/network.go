package agent

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Network is where a host lives.
type Network string

const (
	NetworkLocal  Network = "local"
	NetworkRemote Network = "remote"
	NetworkIC     Network = "ic"
)

const (
	ICHost                = "https://ic0.app"
	LocalPort             = 4943
	ICIdentityProvider    = "https://identity.ic0.app"
	LocalIdentityProvider = "http://rdmx6-jaaaa-aaaaa-aaadq-cai.localhost:4943"

	// EnvNetwork selects the network when process environment support is on.
	EnvNetwork = "DFX_NETWORK"
	// EnvHost overrides the local replica address.
	EnvHost = "IC_HOST"
)

var (
	localHosts  = []string{"localhost", "127.0.0.1", "[::1]", "::1"}
	remoteHosts = []string{".github.dev", ".gitpod.io"}
)

// LocalHost returns the address of a local replica on the given port.
func LocalHost(port int) string {
	if port == 0 {
		port = LocalPort
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// NetworkByHostname classifies a hostname by suffix. Anything that is
// neither local nor a known remote development host is the IC.
func NetworkByHostname(hostname string) Network {
	for _, h := range localHosts {
		if strings.HasSuffix(hostname, h) {
			return NetworkLocal
		}
	}
	for _, h := range remoteHosts {
		if strings.HasSuffix(hostname, h) {
			return NetworkRemote
		}
	}
	return NetworkIC
}

// NetworkByHost classifies a host URL. Unparseable hosts count as the IC.
func NetworkByHost(host string) Network {
	u, err := url.Parse(host)
	if err != nil || u.Hostname() == "" {
		return NetworkIC
	}
	return NetworkByHostname(u.Hostname())
}

// ProcessEnvNetwork returns DFX_NETWORK, defaulting to the IC.
func ProcessEnvNetwork() Network {
	if v := os.Getenv(EnvNetwork); v != "" {
		return Network(v)
	}
	return NetworkIC
}

// DefaultIdentityProvider returns the identity provider for a network.
func DefaultIdentityProvider(n Network) string {
	if n == NetworkIC {
		return ICIdentityProvider
	}
	return LocalIdentityProvider
}
