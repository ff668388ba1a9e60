package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/crypto/keystore"
	"github.com/aastarcommunity/keyvault/enclave"
)

// Protocol constants.
const (
	// ProtocolMagic identifies a keyvault frame ("KVLT").
	ProtocolMagic = 0x4B564C54
	// ProtocolVersion is bumped on incompatible frame changes.
	ProtocolVersion = 1
	// HeaderSize is the fixed frame header size in bytes.
	HeaderSize = 16
	// MaxPayloadSize bounds a frame payload. The largest legitimate payload
	// is the key list response; anything bigger is a protocol violation.
	MaxPayloadSize = 4096
)

// Header flags.
const (
	// FlagResponse marks a frame traveling from engine to caller.
	FlagResponse uint8 = 0x01
)

// Header is the fixed-size frame header. All header fields are big-endian
// on the wire; the result layouts inside response payloads keep their
// little-endian reference encoding.
type Header struct {
	Magic     uint32
	Version   uint8
	Flags     uint8
	Command   uint16 // enclave.CommandID
	RequestID uint32
	Length    uint32 // payload length, header excluded
}

// WriteFrame writes a header and payload to w.
func WriteFrame(w io.Writer, h Header, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("payload too large: %d bytes", len(payload))
	}
	h.Magic = ProtocolMagic
	h.Version = ProtocolVersion
	h.Length = uint32(len(payload))

	var buf [HeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.BigEndian.PutUint16(buf[6:8], h.Command)
	binary.BigEndian.PutUint32(buf[8:12], h.RequestID)
	binary.BigEndian.PutUint32(buf[12:16], h.Length)

	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("failed to write frame payload: %w", err)
		}
	}
	return nil
}

// ReadFrame reads one frame from r, validating magic, version, and payload
// bounds.
func ReadFrame(r io.Reader) (Header, []byte, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, nil, err
	}

	h := Header{
		Magic:     binary.BigEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Flags:     buf[5],
		Command:   binary.BigEndian.Uint16(buf[6:8]),
		RequestID: binary.BigEndian.Uint32(buf[8:12]),
		Length:    binary.BigEndian.Uint32(buf[12:16]),
	}
	if h.Magic != ProtocolMagic {
		return Header{}, nil, fmt.Errorf("invalid frame magic: 0x%08x", h.Magic)
	}
	if h.Version != ProtocolVersion {
		return Header{}, nil, fmt.Errorf("unsupported protocol version: %d", h.Version)
	}
	if h.Length > MaxPayloadSize {
		return Header{}, nil, fmt.Errorf("frame payload too large: %d bytes", h.Length)
	}

	var payload []byte
	if h.Length > 0 {
		payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return Header{}, nil, fmt.Errorf("failed to read frame payload: %w", err)
		}
	}
	return h, payload, nil
}

// Request payload encodings. Variable-length fields are length-prefixed with
// uint16 (big-endian); fixed-length fields are not prefixed.

// appendKeyID appends a length-prefixed key id.
func appendKeyID(buf []byte, keyID string) []byte {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(keyID)))
	buf = append(buf, l[:]...)
	return append(buf, keyID...)
}

// readKeyID consumes a length-prefixed key id and returns the remainder.
func readKeyID(buf []byte) (string, []byte, error) {
	if len(buf) < 2 {
		return "", nil, fmt.Errorf("%w: truncated key id length", enclave.ErrInvalidParameters)
	}
	n := int(binary.BigEndian.Uint16(buf[0:2]))
	if len(buf) < 2+n {
		return "", nil, fmt.Errorf("%w: truncated key id", enclave.ErrInvalidParameters)
	}
	return string(buf[2 : 2+n]), buf[2+n:], nil
}

// EncodeRequest encodes a typed command into a request payload.
func EncodeRequest(cmd enclave.Command) ([]byte, error) {
	switch req := cmd.(type) {
	case enclave.GenerateKeyRequest:
		buf := appendKeyID(nil, req.KeyID)
		var t [4]byte
		binary.BigEndian.PutUint32(t[:], uint32(req.KeyType))
		return append(buf, t[:]...), nil
	case enclave.ImportKeyRequest:
		buf := appendKeyID(nil, req.KeyID)
		var t [4]byte
		binary.BigEndian.PutUint32(t[:], uint32(req.KeyType))
		buf = append(buf, t[:]...)
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(req.PrivateKey)))
		buf = append(buf, l[:]...)
		return append(buf, req.PrivateKey...), nil
	case enclave.SignMessageRequest:
		buf := appendKeyID(nil, req.KeyID)
		return append(buf, req.MessageHash...), nil
	case enclave.GetPublicKeyRequest:
		return appendKeyID(nil, req.KeyID), nil
	case enclave.DeleteKeyRequest:
		return appendKeyID(nil, req.KeyID), nil
	case enclave.ListKeysRequest, enclave.GetVersionRequest, enclave.HealthCheckRequest:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown command", enclave.ErrInvalidParameters)
	}
}

// DecodeRequest decodes a request payload into the typed command matching
// the frame's command id. Shape violations fail with ErrInvalidParameters
// before the request reaches the engine.
func DecodeRequest(id enclave.CommandID, payload []byte) (enclave.Command, error) {
	switch id {
	case enclave.CmdGenerateKey:
		keyID, rest, err := readKeyID(payload)
		if err != nil {
			return nil, err
		}
		if len(rest) != 4 {
			return nil, fmt.Errorf("%w: malformed generate_key request", enclave.ErrInvalidParameters)
		}
		return enclave.GenerateKeyRequest{
			KeyID:   keyID,
			KeyType: keystore.KeyType(binary.BigEndian.Uint32(rest)),
		}, nil
	case enclave.CmdImportKey:
		keyID, rest, err := readKeyID(payload)
		if err != nil {
			return nil, err
		}
		if len(rest) < 6 {
			return nil, fmt.Errorf("%w: malformed import_key request", enclave.ErrInvalidParameters)
		}
		keyType := keystore.KeyType(binary.BigEndian.Uint32(rest[0:4]))
		n := int(binary.BigEndian.Uint16(rest[4:6]))
		if len(rest) != 6+n {
			return nil, fmt.Errorf("%w: malformed import_key request", enclave.ErrInvalidParameters)
		}
		return enclave.ImportKeyRequest{
			KeyID:      keyID,
			KeyType:    keyType,
			PrivateKey: rest[6:],
		}, nil
	case enclave.CmdSignMessage:
		keyID, rest, err := readKeyID(payload)
		if err != nil {
			return nil, err
		}
		if len(rest) != crypto.DigestSize {
			return nil, fmt.Errorf("%w: message hash must be %d bytes, got %d",
				enclave.ErrInvalidParameters, crypto.DigestSize, len(rest))
		}
		return enclave.SignMessageRequest{KeyID: keyID, MessageHash: rest}, nil
	case enclave.CmdGetPublicKey:
		keyID, rest, err := readKeyID(payload)
		if err != nil {
			return nil, err
		}
		if len(rest) != 0 {
			return nil, fmt.Errorf("%w: malformed get_public_key request", enclave.ErrInvalidParameters)
		}
		return enclave.GetPublicKeyRequest{KeyID: keyID}, nil
	case enclave.CmdDeleteKey:
		keyID, rest, err := readKeyID(payload)
		if err != nil {
			return nil, err
		}
		if len(rest) != 0 {
			return nil, fmt.Errorf("%w: malformed delete_key request", enclave.ErrInvalidParameters)
		}
		return enclave.DeleteKeyRequest{KeyID: keyID}, nil
	case enclave.CmdListKeys:
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: malformed list_keys request", enclave.ErrInvalidParameters)
		}
		return enclave.ListKeysRequest{}, nil
	case enclave.CmdGetVersion:
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: malformed get_version request", enclave.ErrInvalidParameters)
		}
		return enclave.GetVersionRequest{}, nil
	case enclave.CmdHealthCheck:
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: malformed health_check request", enclave.ErrInvalidParameters)
		}
		return enclave.HealthCheckRequest{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown command id %d", enclave.ErrInvalidParameters, id)
	}
}
