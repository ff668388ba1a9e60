// Package keystore implements the fixed-capacity key table backing the
// key-custody engine. Each record pairs the secret scalar with its public
// metadata; the secret never crosses the package boundary except through a
// signing call, and it is zeroized when the store is wiped.
package keystore

import (
	"fmt"
	"strings"

	"github.com/aastarcommunity/keyvault/crypto"
)

// MaxKeyIDSize is the maximum size of a key identifier including the
// reference format's NUL terminator, so identifiers may be at most
// MaxKeyIDSize-1 bytes long.
const MaxKeyIDSize = 64

// KeyType identifies the signing algorithm of a managed key.
type KeyType uint32

const (
	// KeyTypeECDSASecp256k1 is the Ethereum-standard curve.
	KeyTypeECDSASecp256k1 KeyType = 0
	// KeyTypeEd25519 is reserved; generation and signing are not implemented.
	KeyTypeEd25519 KeyType = 1
)

// String returns a human-readable name for the key type.
func (t KeyType) String() string {
	switch t {
	case KeyTypeECDSASecp256k1:
		return "ecdsa-secp256k1"
	case KeyTypeEd25519:
		return "ed25519"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// KeyStatus is the administrative state of a managed key.
type KeyStatus uint32

const (
	// KeyStatusActive allows signing.
	KeyStatusActive KeyStatus = 0
	// KeyStatusInactive blocks signing without destroying the key.
	KeyStatusInactive KeyStatus = 1
	// KeyStatusCompromised permanently blocks signing.
	KeyStatusCompromised KeyStatus = 2
)

// String returns a human-readable name for the key status.
func (s KeyStatus) String() string {
	switch s {
	case KeyStatusActive:
		return "active"
	case KeyStatusInactive:
		return "inactive"
	case KeyStatusCompromised:
		return "compromised"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(s))
	}
}

// KeyInfo is the public metadata projection of a record. It carries no secret
// material and is safe to copy across the command boundary.
type KeyInfo struct {
	KeyID        string
	KeyType      KeyType
	Status       KeyStatus
	CreatedTime  uint64
	LastUsedTime uint64
	UsageCount   uint32
	Address      [crypto.AddressSize]byte
}

// Record is one managed key: secret scalar, derived public material, and
// usage metadata. Records are created by NewRecord and owned by a Store.
type Record struct {
	keyID        string
	keyType      KeyType
	status       KeyStatus
	secret       [crypto.PrivateKeySize]byte
	public       [crypto.PublicKeySize]byte
	address      [crypto.AddressSize]byte
	createdTime  uint64
	lastUsedTime uint64
	usageCount   uint32
}

// NewRecord builds a record from freshly generated key material. The private
// scalar is copied; the caller remains responsible for zeroizing its own copy.
func NewRecord(keyID string, keyType KeyType, kp *crypto.Keypair, address [crypto.AddressSize]byte, now uint64) (*Record, error) {
	if keyID == "" || len(keyID) >= MaxKeyIDSize {
		return nil, fmt.Errorf("invalid key id length: %d", len(keyID))
	}
	// Identifiers are NUL-padded into fixed fields on serialization, so an
	// embedded NUL would be unrepresentable.
	if strings.ContainsRune(keyID, 0) {
		return nil, fmt.Errorf("key id contains a NUL byte")
	}
	if kp == nil {
		return nil, fmt.Errorf("keypair cannot be nil")
	}

	r := &Record{
		keyID:        keyID,
		keyType:      keyType,
		status:       KeyStatusActive,
		address:      address,
		createdTime:  now,
		lastUsedTime: now,
	}
	copy(r.secret[:], kp.Private[:])
	copy(r.public[:], kp.Public[:])
	return r, nil
}

// KeyID returns the record's identifier.
func (r *Record) KeyID() string { return r.keyID }

// KeyType returns the record's algorithm type.
func (r *Record) KeyType() KeyType { return r.keyType }

// Status returns the record's administrative state.
func (r *Record) Status() KeyStatus { return r.status }

// SetStatus updates the record's administrative state.
func (r *Record) SetStatus(s KeyStatus) { r.status = s }

// PublicKey returns a copy of the 64-byte uncompressed public key (X || Y).
func (r *Record) PublicKey() [crypto.PublicKeySize]byte { return r.public }

// Address returns the record's derived 20-byte address.
func (r *Record) Address() [crypto.AddressSize]byte { return r.address }

// Info returns the public metadata projection of the record.
func (r *Record) Info() KeyInfo {
	return KeyInfo{
		KeyID:        r.keyID,
		KeyType:      r.keyType,
		Status:       r.status,
		CreatedTime:  r.createdTime,
		LastUsedTime: r.lastUsedTime,
		UsageCount:   r.usageCount,
		Address:      r.address,
	}
}

// Sign signs a 32-byte digest with the record's secret scalar through the
// given provider. The scalar is handed to the provider in place; no copy of
// it outlives the call.
func (r *Record) Sign(p crypto.Provider, digest []byte) (*crypto.Signature, error) {
	return p.SignDigest(r.secret[:], digest)
}

// MarkUsed records a successful signing operation.
func (r *Record) MarkUsed(now uint64) {
	r.lastUsedTime = now
	r.usageCount++
}

// wipe zeroizes the secret scalar and clears the public material.
func (r *Record) wipe() {
	zeroize(r.secret[:])
	zeroize(r.public[:])
	zeroize(r.address[:])
}
