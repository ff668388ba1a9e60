package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/aastarcommunity/keyvault/crypto/keystore"
	"github.com/aastarcommunity/keyvault/enclave"
)

// Result structure sizes in bytes. These match the reference C layouts,
// including alignment padding, on a little-endian target.
const (
	// SignatureResultSize: signature[64], signature_len u32, recovery_id u8,
	// reserved[3].
	SignatureResultSize = 72
	// PublicKeyResultSize: public_key[64], public_key_len u32, address[20],
	// reserved[8].
	PublicKeyResultSize = 96
	// KeyInfoSize: key_id[64], key_type u32, status u32, created u64,
	// last_used u64, usage_count u32, address[20].
	KeyInfoSize = 112
	// KeyListMaxKeys is the fixed record count of the key list layout,
	// independent of the engine's configured capacity.
	KeyListMaxKeys = 16
	// KeyListResultSize: key_count u32, 4 bytes alignment padding, then
	// KeyListMaxKeys fixed-size records.
	KeyListResultSize = 8 + KeyListMaxKeys*KeyInfoSize
	// VersionInfoSize: major/minor/patch u32, build_info[64].
	VersionInfoSize = 76
	// HealthResultSize: status, sessions, operations, storage u32, uptime u64.
	HealthResultSize = 24
)

// Layouts are little-endian, matching the reference target.
var layout = binary.LittleEndian

// MarshalSignatureResult writes r into buf and returns the number of bytes
// written. An undersized buf fails with ErrShortBuffer and buf is untouched.
func MarshalSignatureResult(buf []byte, r *enclave.SignatureResult) (int, error) {
	if len(buf) < SignatureResultSize {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, SignatureResultSize, len(buf))
	}
	copy(buf[0:64], r.Signature[:])
	layout.PutUint32(buf[64:68], r.SignatureLen)
	buf[68] = r.RecoveryID
	buf[69], buf[70], buf[71] = 0, 0, 0
	return SignatureResultSize, nil
}

// UnmarshalSignatureResult parses a signature result layout.
func UnmarshalSignatureResult(buf []byte) (*enclave.SignatureResult, error) {
	if len(buf) < SignatureResultSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, SignatureResultSize, len(buf))
	}
	r := &enclave.SignatureResult{}
	copy(r.Signature[:], buf[0:64])
	r.SignatureLen = layout.Uint32(buf[64:68])
	r.RecoveryID = buf[68]
	return r, nil
}

// MarshalPublicKeyResult writes r into buf.
func MarshalPublicKeyResult(buf []byte, r *enclave.PublicKeyResult) (int, error) {
	if len(buf) < PublicKeyResultSize {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, PublicKeyResultSize, len(buf))
	}
	copy(buf[0:64], r.PublicKey[:])
	layout.PutUint32(buf[64:68], r.PublicKeyLen)
	copy(buf[68:88], r.Address[:])
	for i := 88; i < 96; i++ {
		buf[i] = 0
	}
	return PublicKeyResultSize, nil
}

// UnmarshalPublicKeyResult parses a public key result layout.
func UnmarshalPublicKeyResult(buf []byte) (*enclave.PublicKeyResult, error) {
	if len(buf) < PublicKeyResultSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, PublicKeyResultSize, len(buf))
	}
	r := &enclave.PublicKeyResult{}
	copy(r.PublicKey[:], buf[0:64])
	r.PublicKeyLen = layout.Uint32(buf[64:68])
	copy(r.Address[:], buf[68:88])
	return r, nil
}

// marshalKeyInfo writes one key info record into buf[0:KeyInfoSize].
// The key id is NUL-padded to its fixed field width.
func marshalKeyInfo(buf []byte, info *keystore.KeyInfo) error {
	if len(buf) < KeyInfoSize {
		return fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, KeyInfoSize, len(buf))
	}
	if len(info.KeyID) >= keystore.MaxKeyIDSize {
		return fmt.Errorf("%w: key id too long", enclave.ErrInvalidParameters)
	}
	for i := 0; i < keystore.MaxKeyIDSize; i++ {
		buf[i] = 0
	}
	copy(buf[0:], info.KeyID)
	layout.PutUint32(buf[64:68], uint32(info.KeyType))
	layout.PutUint32(buf[68:72], uint32(info.Status))
	layout.PutUint64(buf[72:80], info.CreatedTime)
	layout.PutUint64(buf[80:88], info.LastUsedTime)
	layout.PutUint32(buf[88:92], info.UsageCount)
	copy(buf[92:112], info.Address[:])
	return nil
}

// unmarshalKeyInfo parses one key info record.
func unmarshalKeyInfo(buf []byte) (keystore.KeyInfo, error) {
	var info keystore.KeyInfo
	if len(buf) < KeyInfoSize {
		return info, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, KeyInfoSize, len(buf))
	}
	id := buf[0:keystore.MaxKeyIDSize]
	if i := bytes.IndexByte(id, 0); i >= 0 {
		id = id[:i]
	}
	info.KeyID = string(id)
	info.KeyType = keystore.KeyType(layout.Uint32(buf[64:68]))
	info.Status = keystore.KeyStatus(layout.Uint32(buf[68:72]))
	info.CreatedTime = layout.Uint64(buf[72:80])
	info.LastUsedTime = layout.Uint64(buf[80:88])
	info.UsageCount = layout.Uint32(buf[88:92])
	copy(info.Address[:], buf[92:112])
	return info, nil
}

// MarshalKeyListResult writes r into buf. The layout always carries
// KeyListMaxKeys record slots; unused slots are zeroed.
func MarshalKeyListResult(buf []byte, r *enclave.KeyListResult) (int, error) {
	if len(buf) < KeyListResultSize {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, KeyListResultSize, len(buf))
	}
	if len(r.Keys) > KeyListMaxKeys {
		return 0, fmt.Errorf("%w: %d keys exceed layout capacity %d", enclave.ErrInvalidParameters, len(r.Keys), KeyListMaxKeys)
	}
	for i := range buf[:KeyListResultSize] {
		buf[i] = 0
	}
	layout.PutUint32(buf[0:4], uint32(len(r.Keys)))
	for i := range r.Keys {
		off := 8 + i*KeyInfoSize
		if err := marshalKeyInfo(buf[off:off+KeyInfoSize], &r.Keys[i]); err != nil {
			return 0, err
		}
	}
	return KeyListResultSize, nil
}

// UnmarshalKeyListResult parses a key list layout.
func UnmarshalKeyListResult(buf []byte) (*enclave.KeyListResult, error) {
	if len(buf) < KeyListResultSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, KeyListResultSize, len(buf))
	}
	count := layout.Uint32(buf[0:4])
	if count > KeyListMaxKeys {
		return nil, fmt.Errorf("%w: key count %d exceeds layout capacity", enclave.ErrInvalidParameters, count)
	}
	r := &enclave.KeyListResult{Keys: make([]keystore.KeyInfo, 0, count)}
	for i := 0; i < int(count); i++ {
		off := 8 + i*KeyInfoSize
		info, err := unmarshalKeyInfo(buf[off : off+KeyInfoSize])
		if err != nil {
			return nil, err
		}
		r.Keys = append(r.Keys, info)
	}
	return r, nil
}

// MarshalVersionInfo writes r into buf. The build string is NUL-padded to
// its fixed 64-byte field.
func MarshalVersionInfo(buf []byte, r *enclave.VersionInfo) (int, error) {
	if len(buf) < VersionInfoSize {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, VersionInfoSize, len(buf))
	}
	build := r.BuildInfo
	if len(build) > 63 {
		build = build[:63]
	}
	layout.PutUint32(buf[0:4], r.Major)
	layout.PutUint32(buf[4:8], r.Minor)
	layout.PutUint32(buf[8:12], r.Patch)
	for i := 12; i < VersionInfoSize; i++ {
		buf[i] = 0
	}
	copy(buf[12:], build)
	return VersionInfoSize, nil
}

// UnmarshalVersionInfo parses a version info layout.
func UnmarshalVersionInfo(buf []byte) (*enclave.VersionInfo, error) {
	if len(buf) < VersionInfoSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, VersionInfoSize, len(buf))
	}
	r := &enclave.VersionInfo{
		Major: layout.Uint32(buf[0:4]),
		Minor: layout.Uint32(buf[4:8]),
		Patch: layout.Uint32(buf[8:12]),
	}
	build := buf[12:VersionInfoSize]
	if i := bytes.IndexByte(build, 0); i >= 0 {
		build = build[:i]
	}
	r.BuildInfo = string(build)
	return r, nil
}

// MarshalHealthResult writes r into buf.
func MarshalHealthResult(buf []byte, r *enclave.HealthResult) (int, error) {
	if len(buf) < HealthResultSize {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, HealthResultSize, len(buf))
	}
	layout.PutUint32(buf[0:4], r.Status)
	layout.PutUint32(buf[4:8], r.ActiveSessions)
	layout.PutUint32(buf[8:12], r.TotalOperations)
	layout.PutUint32(buf[12:16], r.StorageUsage)
	layout.PutUint64(buf[16:24], r.Uptime)
	return HealthResultSize, nil
}

// UnmarshalHealthResult parses a health result layout.
func UnmarshalHealthResult(buf []byte) (*enclave.HealthResult, error) {
	if len(buf) < HealthResultSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", enclave.ErrShortBuffer, HealthResultSize, len(buf))
	}
	return &enclave.HealthResult{
		Status:          layout.Uint32(buf[0:4]),
		ActiveSessions:  layout.Uint32(buf[4:8]),
		TotalOperations: layout.Uint32(buf[8:12]),
		StorageUsage:    layout.Uint32(buf[12:16]),
		Uptime:          layout.Uint64(buf[16:24]),
	}, nil
}
