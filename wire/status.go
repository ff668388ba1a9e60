// Package wire implements the engine's caller-facing contract: the bit-exact
// little-endian layouts of the result structures, a framed request/response
// protocol over a stream transport, the numeric status code table, and a
// small blocking client.
//
// The layouts and status codes mirror the reference engine so existing
// callers can be pointed at this implementation without re-marshalling.
package wire

import (
	"errors"
	"fmt"

	"github.com/aastarcommunity/keyvault/enclave"
)

// Status codes carried in every response frame. Codes 0x00-0x0A match the
// reference table; the remaining codes cover conditions the reference
// reported through host-environment codes.
const (
	StatusOK                 uint32 = 0x00000000
	StatusGeneric            uint32 = 0x00000001
	StatusAccessDenied       uint32 = 0x00000002
	StatusInvalidKeyID       uint32 = 0x00000003
	StatusKeyNotFound        uint32 = 0x00000004
	StatusKeyExists          uint32 = 0x00000005
	StatusInvalidSignature   uint32 = 0x00000006
	StatusInsufficientMemory uint32 = 0x00000007
	StatusInvalidParameter   uint32 = 0x00000008
	StatusCryptoError        uint32 = 0x00000009
	StatusStorageError       uint32 = 0x0000000A
	StatusNotImplemented     uint32 = 0x0000000B
	StatusShortBuffer        uint32 = 0x0000000C
	StatusUnsupportedKey     uint32 = 0x0000000D
)

// StatusCode maps an engine error to its wire status code.
func StatusCode(err error) uint32 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, enclave.ErrInvalidParameters):
		return StatusInvalidParameter
	case errors.Is(err, enclave.ErrNotFound):
		return StatusKeyNotFound
	case errors.Is(err, enclave.ErrAlreadyExists):
		return StatusKeyExists
	case errors.Is(err, enclave.ErrCapacityExceeded):
		return StatusInsufficientMemory
	case errors.Is(err, enclave.ErrAccessDenied):
		return StatusAccessDenied
	case errors.Is(err, enclave.ErrUnsupportedKeyType):
		return StatusUnsupportedKey
	case errors.Is(err, enclave.ErrNotImplemented):
		return StatusNotImplemented
	case errors.Is(err, enclave.ErrShortBuffer):
		return StatusShortBuffer
	case errors.Is(err, enclave.ErrPrimitiveFailure):
		return StatusCryptoError
	case errors.Is(err, enclave.ErrInvalidSignature):
		return StatusInvalidSignature
	default:
		return StatusGeneric
	}
}

// StatusError maps a wire status code back to the engine error vocabulary.
// Used by the client so callers classify failures with errors.Is on both
// sides of the socket.
func StatusError(code uint32) error {
	switch code {
	case StatusOK:
		return nil
	case StatusInvalidParameter, StatusInvalidKeyID:
		return enclave.ErrInvalidParameters
	case StatusKeyNotFound:
		return enclave.ErrNotFound
	case StatusKeyExists:
		return enclave.ErrAlreadyExists
	case StatusInsufficientMemory:
		return enclave.ErrCapacityExceeded
	case StatusAccessDenied:
		return enclave.ErrAccessDenied
	case StatusUnsupportedKey:
		return enclave.ErrUnsupportedKeyType
	case StatusNotImplemented:
		return enclave.ErrNotImplemented
	case StatusShortBuffer:
		return enclave.ErrShortBuffer
	case StatusCryptoError:
		return enclave.ErrPrimitiveFailure
	case StatusInvalidSignature:
		return enclave.ErrInvalidSignature
	default:
		return fmt.Errorf("engine error: status 0x%08x", code)
	}
}
