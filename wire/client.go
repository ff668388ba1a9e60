package wire

import (
	"fmt"
	"net"
	"sync"

	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/crypto/keystore"
	"github.com/aastarcommunity/keyvault/enclave"
)

// Client is a blocking client for the framed protocol. One client holds one
// connection, which is one engine session; requests on a client are
// serialized. Failures surface as the engine's error vocabulary, so callers
// use errors.Is exactly as they would against an in-process engine.
type Client struct {
	mu        sync.Mutex
	conn      net.Conn
	nextReqID uint32
}

// Dial connects to an engine daemon's Unix socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", socketPath, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection, ending the session.
func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip sends one command and returns the response body (the bytes after
// the status code). A non-OK status is mapped back to the engine error
// vocabulary.
func (c *Client) roundTrip(cmd enclave.Command) ([]byte, error) {
	payload, err := EncodeRequest(cmd)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextReqID++
	h := Header{
		Command:   uint16(cmd.CommandID()),
		RequestID: c.nextReqID,
	}
	if err := WriteFrame(c.conn, h, payload); err != nil {
		return nil, err
	}

	respHeader, resp, err := ReadFrame(c.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if respHeader.Flags&FlagResponse == 0 || respHeader.RequestID != c.nextReqID {
		return nil, fmt.Errorf("mismatched response frame")
	}
	if len(resp) < 4 {
		return nil, fmt.Errorf("response too short")
	}

	if err := StatusError(layout.Uint32(resp[0:4])); err != nil {
		return nil, err
	}
	return resp[4:], nil
}

// GenerateKey creates a key and returns its derived address.
func (c *Client) GenerateKey(keyID string, keyType keystore.KeyType) ([crypto.AddressSize]byte, error) {
	var addr [crypto.AddressSize]byte
	body, err := c.roundTrip(enclave.GenerateKeyRequest{KeyID: keyID, KeyType: keyType})
	if err != nil {
		return addr, err
	}
	if len(body) != crypto.AddressSize {
		return addr, fmt.Errorf("unexpected address length: %d", len(body))
	}
	copy(addr[:], body)
	return addr, nil
}

// SignMessage signs a pre-hashed 32-byte message.
func (c *Client) SignMessage(keyID string, messageHash []byte) (*enclave.SignatureResult, error) {
	body, err := c.roundTrip(enclave.SignMessageRequest{KeyID: keyID, MessageHash: messageHash})
	if err != nil {
		return nil, err
	}
	return UnmarshalSignatureResult(body)
}

// GetPublicKey fetches a key's public material and address.
func (c *Client) GetPublicKey(keyID string) (*enclave.PublicKeyResult, error) {
	body, err := c.roundTrip(enclave.GetPublicKeyRequest{KeyID: keyID})
	if err != nil {
		return nil, err
	}
	return UnmarshalPublicKeyResult(body)
}

// ListKeys fetches the public metadata of every live key.
func (c *Client) ListKeys() (*enclave.KeyListResult, error) {
	body, err := c.roundTrip(enclave.ListKeysRequest{})
	if err != nil {
		return nil, err
	}
	return UnmarshalKeyListResult(body)
}

// Version fetches the static engine version.
func (c *Client) Version() (*enclave.VersionInfo, error) {
	body, err := c.roundTrip(enclave.GetVersionRequest{})
	if err != nil {
		return nil, err
	}
	return UnmarshalVersionInfo(body)
}

// Health fetches a health snapshot.
func (c *Client) Health() (*enclave.HealthResult, error) {
	body, err := c.roundTrip(enclave.HealthCheckRequest{})
	if err != nil {
		return nil, err
	}
	return UnmarshalHealthResult(body)
}
