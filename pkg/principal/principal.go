// Package principal implements the textual and binary forms of Internet
// Computer principals (canister and user identifiers).
package principal

import (
	"bytes"
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"strings"

	"github.com/pkg/errors"
)

const (
	maxLength = 29
	groupSize = 5

	tagSelfAuthenticated byte = 0x02
	tagAnonymous         byte = 0x04
)

var (
	ErrInvalidPrincipal = errors.New("invalid principal")

	encoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Principal is an opaque identifier of at most 29 bytes.
type Principal struct {
	raw []byte
}

func FromBytes(b []byte) (Principal, error) {
	if len(b) > maxLength {
		return Principal{}, errors.Wrapf(ErrInvalidPrincipal, "length %d exceeds %d bytes", len(b), maxLength)
	}
	return Principal{raw: append([]byte{}, b...)}, nil
}

// FromText decodes the dash-separated base32 text form and verifies its checksum.
func FromText(text string) (Principal, error) {
	compact := strings.ToUpper(strings.ReplaceAll(text, "-", ""))
	decoded, err := encoding.DecodeString(compact)
	if err != nil {
		return Principal{}, errors.Wrapf(ErrInvalidPrincipal, "%q: %s", text, err)
	}
	if len(decoded) < crc32.Size {
		return Principal{}, errors.Wrapf(ErrInvalidPrincipal, "%q is too short", text)
	}
	p, err := FromBytes(decoded[crc32.Size:])
	if err != nil {
		return Principal{}, err
	}
	if p.Text() != strings.ToLower(text) {
		return Principal{}, errors.Wrapf(ErrInvalidPrincipal, "%q is not in canonical form", text)
	}
	return p, nil
}

func MustFromText(text string) Principal {
	p, err := FromText(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Anonymous is the principal used by unauthenticated callers: 2vxsx-fae.
func Anonymous() Principal {
	return Principal{raw: []byte{tagAnonymous}}
}

// ManagementCanister is the virtual management canister: aaaaa-aa.
func ManagementCanister() Principal {
	return Principal{raw: []byte{}}
}

// SelfAuthenticating derives the principal of a DER encoded public key.
func SelfAuthenticating(publicKeyDER []byte) Principal {
	hash := sha256.Sum224(publicKeyDER)
	return Principal{raw: append(hash[:], tagSelfAuthenticated)}
}

func (p Principal) Bytes() []byte {
	return append([]byte{}, p.raw...)
}

func (p Principal) Text() string {
	checksum := make([]byte, crc32.Size)
	binary.BigEndian.PutUint32(checksum, crc32.ChecksumIEEE(p.raw))
	encoded := strings.ToLower(encoding.EncodeToString(append(checksum, p.raw...)))

	var groups []string
	for len(encoded) > groupSize {
		groups = append(groups, encoded[:groupSize])
		encoded = encoded[groupSize:]
	}
	groups = append(groups, encoded)
	return strings.Join(groups, "-")
}

func (p Principal) String() string {
	return p.Text()
}

func (p Principal) IsAnonymous() bool {
	return len(p.raw) == 1 && p.raw[0] == tagAnonymous
}

func (p Principal) Equal(other Principal) bool {
	return bytes.Equal(p.raw, other.raw)
}

func (p Principal) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Text())
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	parsed, err := FromText(text)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
