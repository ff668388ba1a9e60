// Package enclave implements the key-custody engine: a command dispatcher
// over a fixed-capacity key store, with key generation, address derivation,
// digest signing, and session/operation telemetry.
//
// The engine is an explicit context object rather than process-global state:
// construct one with New, drive it through typed commands, and destroy it
// with Close, which zeroizes all secret material. Every invocation is
// serialized behind a single mutex, so an engine can be shared by a
// concurrent transport without additional locking.
package enclave

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/crypto/keystore"
)

// Engine version, reported by GetVersion.
const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
	BuildInfo    = "keyvault v1.0.0 (secp256k1)"
)

// recordFootprint is the coarse per-key storage estimate used by health
// checks, matching the reference entry footprint in bytes.
const recordFootprint = 288

// Clock returns the current time in seconds. Injected in tests.
type Clock func() uint64

func wallClock() uint64 {
	return uint64(time.Now().Unix())
}

// Engine is the command-dispatch core. All state is instance-scoped; two
// engines in one process are fully independent.
type Engine struct {
	mu sync.Mutex

	store    *keystore.Store
	provider crypto.Provider
	scheme   crypto.AddressScheme
	// reportRecoveryID selects between the reference placeholder (always
	// zero) and true recovery-id derivation.
	reportRecoveryID bool

	clock      Clock
	startTime  uint64
	sessions   uint32
	operations uint32
	closed     bool
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithProvider replaces the production primitive provider.
func WithProvider(p crypto.Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithCapacity sets the key store capacity. Non-positive values fall back to
// the default of 16.
func WithCapacity(n int) Option {
	return func(e *Engine) { e.store = keystore.NewStore(n) }
}

// WithAddressScheme fixes the address derivation rule for this engine.
// The default is the documented SHA-256 substitution.
func WithAddressScheme(s crypto.AddressScheme) Option {
	return func(e *Engine) { e.scheme = s }
}

// WithRecoveryID enables true ECDSA recovery-id reporting. When disabled
// (the default), SignMessage reports the reference placeholder of zero.
func WithRecoveryID(enabled bool) Option {
	return func(e *Engine) { e.reportRecoveryID = enabled }
}

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New constructs a ready engine: empty store, zeroed counters, start time
// sampled from the clock.
func New(opts ...Option) *Engine {
	e := &Engine{
		store:    keystore.NewStore(keystore.DefaultCapacity),
		provider: crypto.NewProvider(),
		scheme:   crypto.AddressSHA256,
		clock:    wallClock,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.startTime = e.clock()
	return e
}

// OpenSession registers one more caller session.
func (e *Engine) OpenSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.sessions++
}

// CloseSession unregisters a caller session. The count never goes below zero.
func (e *Engine) CloseSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions > 0 {
		e.sessions--
	}
}

// Close destroys the engine: every secret scalar is zeroized before the
// store is released. Commands issued after Close fail with ErrAccessDenied.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.store.Wipe()
	e.sessions = 0
	e.closed = true
}

// Invoke dispatches a typed command and returns its result. The result is
// *SignatureResult, *PublicKeyResult, *KeyListResult, *VersionInfo,
// *HealthResult, or a [20]byte address for GenerateKey. A command the engine
// does not recognize fails with ErrInvalidParameters.
func (e *Engine) Invoke(cmd Command) (interface{}, error) {
	switch req := cmd.(type) {
	case GenerateKeyRequest:
		return e.GenerateKey(req.KeyID, req.KeyType)
	case SignMessageRequest:
		return e.SignMessage(req.KeyID, req.MessageHash)
	case GetPublicKeyRequest:
		return e.GetPublicKey(req.KeyID)
	case ListKeysRequest:
		return e.ListKeys()
	case GetVersionRequest:
		return e.Version()
	case HealthCheckRequest:
		return e.Health()
	case ImportKeyRequest:
		return nil, fmt.Errorf("%w: import_key", ErrNotImplemented)
	case DeleteKeyRequest:
		return nil, fmt.Errorf("%w: delete_key", ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%w: unknown command", ErrInvalidParameters)
	}
}

// validateKeyID enforces the identifier shape: 1 to 63 bytes with no embedded
// NUL. The wire layout stores ids NUL-terminated in a fixed field, so an
// embedded NUL would make a stored id unrepresentable in list results.
func validateKeyID(keyID string) error {
	if keyID == "" || len(keyID) >= keystore.MaxKeyIDSize {
		return fmt.Errorf("%w: invalid key id length %d", ErrInvalidParameters, len(keyID))
	}
	if strings.ContainsRune(keyID, 0) {
		return fmt.Errorf("%w: key id contains a NUL byte", ErrInvalidParameters)
	}
	return nil
}

// GenerateKey creates a fresh keypair under keyID and returns its derived
// 20-byte address. Validation mirrors the reference order: capacity, key id
// shape, duplicate id, key type. A duplicate id wins over an unimplemented
// key type because the duplicate scan happens before the generation switch.
// No partial record survives any failure.
func (e *Engine) GenerateKey(keyID string, keyType keystore.KeyType) ([crypto.AddressSize]byte, error) {
	var addr [crypto.AddressSize]byte

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return addr, fmt.Errorf("%w: engine is closed", ErrAccessDenied)
	}
	if e.store.Full() {
		return addr, fmt.Errorf("%w: %d keys", ErrCapacityExceeded, e.store.Capacity())
	}
	if err := validateKeyID(keyID); err != nil {
		return addr, err
	}

	if e.store.Find(keyID) != nil {
		return addr, fmt.Errorf("%w: %q", ErrAlreadyExists, keyID)
	}

	switch keyType {
	case keystore.KeyTypeECDSASecp256k1:
		// Implemented below.
	case keystore.KeyTypeEd25519:
		return addr, fmt.Errorf("%w: ed25519 key generation", ErrNotImplemented)
	default:
		return addr, fmt.Errorf("%w: %d", ErrUnsupportedKeyType, uint32(keyType))
	}

	kp, err := e.provider.GenerateKeypair()
	if err != nil {
		return addr, fmt.Errorf("%w: %v", ErrPrimitiveFailure, err)
	}
	defer kp.Zeroize()

	addr, err = crypto.DeriveAddress(kp.Public[:], e.scheme)
	if err != nil {
		return [crypto.AddressSize]byte{}, fmt.Errorf("%w: %v", ErrPrimitiveFailure, err)
	}

	rec, err := keystore.NewRecord(keyID, keyType, kp, addr, e.clock())
	if err != nil {
		return [crypto.AddressSize]byte{}, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	if err := e.store.Insert(rec); err != nil {
		// Unreachable after the checks above; kept as a backstop so a store
		// refusal can never strand a half-registered key.
		return [crypto.AddressSize]byte{}, fmt.Errorf("%w: %v", ErrCapacityExceeded, err)
	}

	e.operations++
	return addr, nil
}

// SignMessage signs a pre-hashed 32-byte message with the key's secret
// scalar. The digest length is checked before any lookup, so a malformed
// request never reaches the primitive layer. Usage statistics are updated
// only after the provider succeeds.
func (e *Engine) SignMessage(keyID string, messageHash []byte) (*SignatureResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("%w: engine is closed", ErrAccessDenied)
	}
	if err := validateKeyID(keyID); err != nil {
		return nil, err
	}
	if len(messageHash) != crypto.DigestSize {
		return nil, fmt.Errorf("%w: message hash must be %d bytes, got %d",
			ErrInvalidParameters, crypto.DigestSize, len(messageHash))
	}

	rec := e.store.Find(keyID)
	if rec == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, keyID)
	}
	if rec.Status() != keystore.KeyStatusActive {
		return nil, fmt.Errorf("%w: key %q is %s", ErrAccessDenied, keyID, rec.Status())
	}

	switch rec.KeyType() {
	case keystore.KeyTypeECDSASecp256k1:
		// Implemented below.
	case keystore.KeyTypeEd25519:
		return nil, fmt.Errorf("%w: ed25519 signing", ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKeyType, uint32(rec.KeyType()))
	}

	sig, err := rec.Sign(e.provider, messageHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrimitiveFailure, err)
	}

	result := &SignatureResult{
		Signature:    sig.Bytes,
		SignatureLen: crypto.SignatureSize,
	}
	if e.reportRecoveryID {
		result.RecoveryID = sig.RecoveryID
	}

	rec.MarkUsed(e.clock())
	e.operations++
	return result, nil
}

// GetPublicKey returns a key's public material and derived address.
// Pure lookup; the only state change is the operation counter.
func (e *Engine) GetPublicKey(keyID string) (*PublicKeyResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("%w: engine is closed", ErrAccessDenied)
	}
	if err := validateKeyID(keyID); err != nil {
		return nil, err
	}

	rec := e.store.Find(keyID)
	if rec == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, keyID)
	}

	result := &PublicKeyResult{
		PublicKey:    rec.PublicKey(),
		PublicKeyLen: crypto.PublicKeySize,
		Address:      rec.Address(),
	}
	e.operations++
	return result, nil
}

// ListKeys returns the public metadata of every live key in creation order.
func (e *Engine) ListKeys() (*KeyListResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("%w: engine is closed", ErrAccessDenied)
	}

	result := &KeyListResult{Keys: e.store.SnapshotPublic()}
	e.operations++
	return result, nil
}

// Version returns the static engine version.
func (e *Engine) Version() (*VersionInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("%w: engine is closed", ErrAccessDenied)
	}
	return &VersionInfo{
		Major:     VersionMajor,
		Minor:     VersionMinor,
		Patch:     VersionPatch,
		BuildInfo: BuildInfo,
	}, nil
}

// Health returns a point-in-time health snapshot. Pure read: the operation
// counter is not incremented.
func (e *Engine) Health() (*HealthResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("%w: engine is closed", ErrAccessDenied)
	}
	return &HealthResult{
		Status:          HealthOK,
		ActiveSessions:  e.sessions,
		TotalOperations: e.operations,
		StorageUsage:    uint32(e.store.Len()) * recordFootprint,
		Uptime:          e.clock() - e.startTime,
	}, nil
}

// SetKeyStatus updates a key's administrative state. This is the only
// mutation available to administrative callers; only status changes, never
// key material.
func (e *Engine) SetKeyStatus(keyID string, status keystore.KeyStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("%w: engine is closed", ErrAccessDenied)
	}
	rec := e.store.Find(keyID)
	if rec == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, keyID)
	}
	rec.SetStatus(status)
	return nil
}
