package enclave

import (
	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/crypto/keystore"
)

// CommandID identifies one engine command. The numeric values are part of
// the wire contract and must not be reordered.
type CommandID uint32

const (
	CmdGenerateKey  CommandID = 0
	CmdImportKey    CommandID = 1
	CmdSignMessage  CommandID = 2
	CmdGetPublicKey CommandID = 3
	CmdDeleteKey    CommandID = 4
	CmdListKeys     CommandID = 5
	CmdGetVersion   CommandID = 6
	CmdHealthCheck  CommandID = 7
)

// Command is a typed request routed through Engine.Invoke. Each request
// variant carries exactly the parameters its command needs, so parameter
// shape is enforced by the type system instead of positional convention.
type Command interface {
	// CommandID returns the wire identifier of the command.
	CommandID() CommandID
}

// GenerateKeyRequest asks the engine to create a fresh keypair.
type GenerateKeyRequest struct {
	KeyID   string
	KeyType keystore.KeyType
}

func (GenerateKeyRequest) CommandID() CommandID { return CmdGenerateKey }

// ImportKeyRequest asks the engine to import external key material.
// The command is recognized but not implemented.
type ImportKeyRequest struct {
	KeyID      string
	KeyType    keystore.KeyType
	PrivateKey []byte
}

func (ImportKeyRequest) CommandID() CommandID { return CmdImportKey }

// SignMessageRequest asks the engine to sign a pre-hashed 32-byte message.
type SignMessageRequest struct {
	KeyID       string
	MessageHash []byte
}

func (SignMessageRequest) CommandID() CommandID { return CmdSignMessage }

// GetPublicKeyRequest asks for a key's public material and address.
type GetPublicKeyRequest struct {
	KeyID string
}

func (GetPublicKeyRequest) CommandID() CommandID { return CmdGetPublicKey }

// DeleteKeyRequest asks the engine to destroy a key.
// The command is recognized but not implemented; the store is append-only.
type DeleteKeyRequest struct {
	KeyID string
}

func (DeleteKeyRequest) CommandID() CommandID { return CmdDeleteKey }

// ListKeysRequest asks for the public metadata of every live key.
type ListKeysRequest struct{}

func (ListKeysRequest) CommandID() CommandID { return CmdListKeys }

// GetVersionRequest asks for the static engine version.
type GetVersionRequest struct{}

func (GetVersionRequest) CommandID() CommandID { return CmdGetVersion }

// HealthCheckRequest asks for a health snapshot.
type HealthCheckRequest struct{}

func (HealthCheckRequest) CommandID() CommandID { return CmdHealthCheck }

// SignatureResult is the outcome of a successful SignMessage.
type SignatureResult struct {
	// Signature holds the R||S signature bytes.
	Signature [crypto.SignatureSize]byte
	// SignatureLen is the number of valid bytes in Signature.
	SignatureLen uint32
	// RecoveryID is the ECDSA recovery id. It is zero unless the engine was
	// built with WithRecoveryID(true).
	RecoveryID byte
}

// PublicKeyResult is the outcome of a successful GetPublicKey.
type PublicKeyResult struct {
	// PublicKey holds the uncompressed public key as X || Y.
	PublicKey [crypto.PublicKeySize]byte
	// PublicKeyLen is the number of valid bytes in PublicKey.
	PublicKeyLen uint32
	// Address is the key's derived 20-byte address.
	Address [crypto.AddressSize]byte
}

// KeyListResult is the outcome of a successful ListKeys: public metadata in
// creation order, never more than the store capacity.
type KeyListResult struct {
	Keys []keystore.KeyInfo
}

// VersionInfo is the static engine version.
type VersionInfo struct {
	Major     uint32
	Minor     uint32
	Patch     uint32
	BuildInfo string
}

// HealthResult is a point-in-time health snapshot.
type HealthResult struct {
	// Status is HealthOK when the engine is serving commands.
	Status uint32
	// ActiveSessions is the net count of open sessions.
	ActiveSessions uint32
	// TotalOperations counts successfully completed key-state commands.
	TotalOperations uint32
	// StorageUsage is a coarse accounting figure: live keys times the
	// per-record footprint. It is not exact memory accounting.
	StorageUsage uint32
	// Uptime is seconds since the engine was constructed.
	Uptime uint64
}

// HealthOK is the Status value of a healthy engine.
const HealthOK uint32 = 0
