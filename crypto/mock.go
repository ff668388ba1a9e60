package crypto

import (
	"crypto/sha256"
	"encoding/binary"
)

// MockProvider is a deterministic in-memory Provider for testing.
// It counts invocations so tests can assert that the engine never reaches the
// primitive layer on a validation failure, and it supports fault injection
// through GenerateErr and SignErr.
// This is exported so it can be used by tests in other packages.
type MockProvider struct {
	// GenerateErr, when non-nil, is returned by every GenerateKeypair call.
	GenerateErr error
	// SignErr, when non-nil, is returned by every SignDigest call.
	SignErr error

	// GenerateCalls and SignCalls count successful and failed invocations.
	GenerateCalls int
	SignCalls     int

	seq uint64
}

// NewMockProvider creates a deterministic provider whose keypairs are derived
// from an internal sequence number.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) GenerateKeypair() (*Keypair, error) {
	m.GenerateCalls++
	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}

	m.seq++
	var kp Keypair

	// Derive a unique private scalar and public point from the sequence
	// number. The public bytes are not a real curve point; tests that need
	// curve-valid material use the production provider instead.
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], m.seq)

	priv := sha256.Sum256(append([]byte("mock-private"), seed[:]...))
	copy(kp.Private[:], priv[:])

	pubX := sha256.Sum256(append([]byte("mock-public-x"), seed[:]...))
	pubY := sha256.Sum256(append([]byte("mock-public-y"), seed[:]...))
	copy(kp.Public[:32], pubX[:])
	copy(kp.Public[32:], pubY[:])

	return &kp, nil
}

func (m *MockProvider) SignDigest(private, digest []byte) (*Signature, error) {
	m.SignCalls++
	if m.SignErr != nil {
		return nil, m.SignErr
	}

	// Deterministic pseudo-signature bound to both inputs.
	r := sha256.Sum256(append(append([]byte("mock-r"), private...), digest...))
	s := sha256.Sum256(append(append([]byte("mock-s"), private...), digest...))

	var sig Signature
	copy(sig.Bytes[:32], r[:])
	copy(sig.Bytes[32:], s[:])
	sig.RecoveryID = 1
	return &sig, nil
}
