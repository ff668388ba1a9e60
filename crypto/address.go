package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// AddressSize is the size of an Ethereum-style address in bytes.
const AddressSize = 20

// AddressScheme selects the digest used for address derivation. A scheme is
// fixed once per engine instance; the two rules are never mixed within one
// key store.
type AddressScheme int

const (
	// AddressSHA256 derives addresses as SHA256(X || Y)[12:32]. This is the
	// documented reference behavior: the original engine substitutes SHA-256
	// for Keccak-256 and we reproduce the substitution as the default.
	AddressSHA256 AddressScheme = iota
	// AddressKeccak256 derives addresses as Keccak256(X || Y)[12:32], the
	// standard Ethereum rule.
	AddressKeccak256
)

// String returns the configuration name of the scheme.
func (s AddressScheme) String() string {
	switch s {
	case AddressSHA256:
		return "sha256"
	case AddressKeccak256:
		return "keccak256"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseAddressScheme parses a configuration name into an AddressScheme.
func ParseAddressScheme(name string) (AddressScheme, error) {
	switch name {
	case "sha256":
		return AddressSHA256, nil
	case "keccak256":
		return AddressKeccak256, nil
	default:
		return 0, fmt.Errorf("unknown address scheme: %q", name)
	}
}

// DeriveAddress derives a 20-byte address from the 64-byte uncompressed
// public key (X || Y) using the given scheme: the low-order 20 bytes of a
// 256-bit digest over the coordinates.
func DeriveAddress(public []byte, scheme AddressScheme) ([AddressSize]byte, error) {
	var addr [AddressSize]byte
	if len(public) != PublicKeySize {
		return addr, fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(public))
	}

	var digest [32]byte
	switch scheme {
	case AddressSHA256:
		digest = sha256.Sum256(public)
	case AddressKeccak256:
		h := sha3.NewLegacyKeccak256()
		h.Write(public)
		copy(digest[:], h.Sum(nil))
	default:
		return addr, fmt.Errorf("unknown address scheme: %d", int(scheme))
	}

	copy(addr[:], digest[12:32])
	return addr, nil
}

// ChecksumAddress formats a 20-byte address as a 0x-prefixed hex string with
// EIP-55 checksum casing: a hex letter is uppercased when the corresponding
// nibble of Keccak256(lowercase_hex_address) is >= 8.
func ChecksumAddress(addr [AddressSize]byte) string {
	hexAddr := hex.EncodeToString(addr[:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(hexAddr))
	hash := h.Sum(nil)

	result := make([]byte, 40)
	for i := 0; i < 40; i++ {
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}

		if nibble >= 8 && hexAddr[i] >= 'a' && hexAddr[i] <= 'f' {
			result[i] = hexAddr[i] - 32
		} else {
			result[i] = hexAddr[i]
		}
	}

	return "0x" + string(result)
}
