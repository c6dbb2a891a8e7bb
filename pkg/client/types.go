//go:generate mockgen --source types.go --destination mocks.go --package client

package client

import (
	"context"
	"time"

	"github.com/B3Pay/ic-reactor-sub004/pkg/agent"
)

// AgentState describes the transport owned by a Manager.
type AgentState struct {
	Initialized  bool
	Initializing bool
	Error        error
	Network      agent.Network
	IsLocalhost  bool
}

// AuthState describes the session of a Manager.
type AuthState struct {
	Identity       agent.Identity
	Authenticated  bool
	Authenticating bool
	Error          error
}

// LoginOptions are handed to the AuthProvider on login.
type LoginOptions struct {
	// IdentityProvider defaults to the provider of the current network.
	IdentityProvider string
	MaxTimeToLive    time.Duration
	DerivationOrigin string
}

// AuthProvider owns the identity lifecycle: restoring a stored session,
// signing in through an identity provider and signing out.
type AuthProvider interface {
	// Identity returns the stored identity, anonymous when signed out.
	Identity(ctx context.Context) (agent.Identity, error)
	// Login signs in and returns the new identity.
	Login(ctx context.Context, opts LoginOptions) (agent.Identity, error)
	// Logout signs out and returns the identity to use afterwards.
	Logout(ctx context.Context) (agent.Identity, error)
}
