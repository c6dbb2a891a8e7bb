//go:build unit || !integration

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkByHostname(t *testing.T) {
	testCases := []struct {
		hostname string
		want     Network
	}{
		{"localhost", NetworkLocal},
		{"127.0.0.1", NetworkLocal},
		{"rdmx6-jaaaa-aaaaa-aaadq-cai.localhost", NetworkLocal},
		{"fluffy-space-4943.app.github.dev", NetworkRemote},
		{"4943-workspace.gitpod.io", NetworkRemote},
		{"ic0.app", NetworkIC},
		{"icp-api.io", NetworkIC},
	}
	for _, tc := range testCases {
		t.Run(tc.hostname, func(t *testing.T) {
			assert.Equal(t, tc.want, NetworkByHostname(tc.hostname))
		})
	}
}

func TestNetworkByHost(t *testing.T) {
	assert.Equal(t, NetworkLocal, NetworkByHost("http://localhost:4943"))
	assert.Equal(t, NetworkIC, NetworkByHost(ICHost))
	assert.Equal(t, NetworkIC, NetworkByHost("::not a url"))
}

func TestProcessEnvNetwork(t *testing.T) {
	t.Setenv(EnvNetwork, "")
	assert.Equal(t, NetworkIC, ProcessEnvNetwork())
	t.Setenv(EnvNetwork, "local")
	assert.Equal(t, NetworkLocal, ProcessEnvNetwork())
}

func TestDefaultIdentityProvider(t *testing.T) {
	assert.Equal(t, ICIdentityProvider, DefaultIdentityProvider(NetworkIC))
	assert.Equal(t, LocalIdentityProvider, DefaultIdentityProvider(NetworkLocal))
	assert.Equal(t, LocalIdentityProvider, DefaultIdentityProvider(NetworkRemote))
	assert.Equal(t, "http://127.0.0.1:8080", LocalHost(8080))
	assert.Equal(t, "http://127.0.0.1:4943", LocalHost(0))
}

func TestIdentity(t *testing.T) {
	assert.True(t, IsAnonymous(nil))
	assert.True(t, IsAnonymous(AnonymousIdentity{}))
}
