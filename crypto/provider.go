// Package crypto provides the cryptographic primitives backing the key-custody
// engine: secp256k1 keypair generation, ECDSA signing over pre-hashed messages,
// and Ethereum-style address derivation.
//
// All primitive operations are reached through the Provider interface so the
// engine never touches curve arithmetic directly. The production implementation
// is backed by btcec; MockProvider supplies deterministic keys and fault
// injection for tests.
package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

const (
	// PrivateKeySize is the size of a raw secp256k1 private scalar in bytes.
	PrivateKeySize = 32
	// PublicKeySize is the size of an uncompressed public key without the
	// 0x04 prefix: X and Y coordinates, 32 bytes each.
	PublicKeySize = 64
	// SignatureSize is the size of an ECDSA signature in R||S form.
	SignatureSize = 64
	// DigestSize is the size of the pre-hashed message the engine signs.
	DigestSize = 32
)

// Keypair holds the raw material of a freshly generated secp256k1 keypair.
// The private scalar is the caller's responsibility to zeroize once it has
// been copied into longer-lived storage.
type Keypair struct {
	// Private is the raw 32-byte private scalar.
	Private [PrivateKeySize]byte
	// Public is the uncompressed public key as X || Y, without the 0x04 prefix.
	Public [PublicKeySize]byte
}

// Zeroize clears the private scalar. The public half is left intact.
func (k *Keypair) Zeroize() {
	zeroize(k.Private[:])
}

// Signature is the result of signing a 32-byte digest.
type Signature struct {
	// Bytes is the signature in R||S form with low-S normalization.
	Bytes [SignatureSize]byte
	// RecoveryID identifies which of the candidate public keys produced the
	// signature. It is computed during signing; whether it is reported to
	// callers is the engine's decision.
	RecoveryID byte
}

// Provider abstracts the asymmetric primitives supplied by the hosting
// environment. Implementations must be safe for use from a single dispatching
// goroutine; they are not required to be reentrant.
type Provider interface {
	// GenerateKeypair produces a fresh secp256k1 keypair from the provider's
	// randomness source.
	GenerateKeypair() (*Keypair, error)
	// SignDigest signs a 32-byte digest with the given raw private scalar.
	// The provider must not retain the private key beyond the call.
	SignDigest(private, digest []byte) (*Signature, error)
}

// secpProvider is the production Provider backed by btcec.
type secpProvider struct{}

// NewProvider returns the production secp256k1 provider.
func NewProvider() Provider {
	return secpProvider{}
}

func (secpProvider) GenerateKeypair() (*Keypair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	var kp Keypair
	copy(kp.Private[:], priv.Serialize())

	// SerializeUncompressed yields 0x04 || X || Y; the engine stores the
	// coordinates without the prefix byte.
	uncompressed := priv.PubKey().SerializeUncompressed()
	copy(kp.Public[:], uncompressed[1:])

	priv.Zero()
	return &kp, nil
}

func (secpProvider) SignDigest(private, digest []byte) (*Signature, error) {
	if len(private) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(private))
	}
	if len(digest) != DigestSize {
		return nil, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(digest))
	}

	priv, _ := btcec.PrivKeyFromBytes(private)
	if priv == nil {
		return nil, fmt.Errorf("failed to parse private key")
	}
	defer priv.Zero()

	// SignCompact produces V || R || S with low-S normalization, where
	// V = 27 + recovery_id for an uncompressed public key.
	compact := ecdsa.SignCompact(priv, digest, false)

	var sig Signature
	copy(sig.Bytes[:], compact[1:])
	sig.RecoveryID = compact[0] - 27
	zeroize(compact)
	return &sig, nil
}

// VerifyDigest reports whether sig is a valid R||S signature over digest for
// the given uncompressed public key (X || Y, 64 bytes).
func VerifyDigest(public, digest, sig []byte) (bool, error) {
	if len(digest) != DigestSize {
		return false, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(digest))
	}
	if len(sig) != SignatureSize {
		return false, fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(sig))
	}

	pub, err := parsePublicKey(public)
	if err != nil {
		return false, err
	}

	r := new(btcec.ModNScalar)
	s := new(btcec.ModNScalar)
	if r.SetByteSlice(sig[:32]) {
		return false, fmt.Errorf("signature R overflows")
	}
	if s.SetByteSlice(sig[32:]) {
		return false, fmt.Errorf("signature S overflows")
	}
	if r.IsZero() || s.IsZero() {
		return false, fmt.Errorf("invalid signature: R or S is zero")
	}

	return ecdsa.NewSignature(r, s).Verify(digest, pub), nil
}

// RecoverPublicKey recovers the uncompressed public key (X || Y) that produced
// sig over digest, using the recovery id embedded in the Signature.
func RecoverPublicKey(digest []byte, sig *Signature) ([PublicKeySize]byte, error) {
	var out [PublicKeySize]byte
	if len(digest) != DigestSize {
		return out, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(digest))
	}

	compact := make([]byte, 65)
	compact[0] = 27 + sig.RecoveryID
	copy(compact[1:], sig.Bytes[:])

	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return out, fmt.Errorf("failed to recover public key: %w", err)
	}

	copy(out[:], pub.SerializeUncompressed()[1:])
	return out, nil
}

// parsePublicKey reconstructs a btcec public key from the 64-byte X || Y form.
func parsePublicKey(public []byte) (*btcec.PublicKey, error) {
	if len(public) != PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(public))
	}

	uncompressed := make([]byte, 65)
	uncompressed[0] = 0x04
	copy(uncompressed[1:], public)

	pub, err := btcec.ParsePubKey(uncompressed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}
