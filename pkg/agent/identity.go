package agent

import "github.com/B3Pay/ic-reactor-sub004/pkg/principal"

// AnonymousIdentity sends unsigned requests.
type AnonymousIdentity struct{}

func (AnonymousIdentity) Principal() principal.Principal { return principal.Anonymous() }

// PrincipalIdentity stands for an identity whose signing is handled
// elsewhere, such as a delegation obtained from an identity provider.
type PrincipalIdentity struct {
	ID principal.Principal
}

func NewPrincipalIdentity(p principal.Principal) *PrincipalIdentity {
	return &PrincipalIdentity{ID: p}
}

func (i *PrincipalIdentity) Principal() principal.Principal { return i.ID }

// IsAnonymous reports whether the identity is missing or anonymous.
func IsAnonymous(identity Identity) bool {
	return identity == nil || identity.Principal().IsAnonymous()
}

var (
	_ Identity = AnonymousIdentity{}
	_ Identity = (*PrincipalIdentity)(nil)
)
