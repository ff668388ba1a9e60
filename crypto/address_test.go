package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestDeriveAddress(t *testing.T) {
	var public [PublicKeySize]byte
	for i := range public {
		public[i] = byte(i + 1)
	}

	t.Run("sha256 scheme", func(t *testing.T) {
		addr, err := DeriveAddress(public[:], AddressSHA256)
		if err != nil {
			t.Fatalf("DeriveAddress failed: %v", err)
		}
		digest := sha256.Sum256(public[:])
		if !bytes.Equal(addr[:], digest[12:32]) {
			t.Error("address is not the low 20 bytes of SHA256(X || Y)")
		}
	})

	t.Run("keccak256 scheme", func(t *testing.T) {
		addr, err := DeriveAddress(public[:], AddressKeccak256)
		if err != nil {
			t.Fatalf("DeriveAddress failed: %v", err)
		}
		h := sha3.NewLegacyKeccak256()
		h.Write(public[:])
		digest := h.Sum(nil)
		if !bytes.Equal(addr[:], digest[12:32]) {
			t.Error("address is not the low 20 bytes of Keccak256(X || Y)")
		}
	})

	t.Run("schemes disagree", func(t *testing.T) {
		a1, _ := DeriveAddress(public[:], AddressSHA256)
		a2, _ := DeriveAddress(public[:], AddressKeccak256)
		if a1 == a2 {
			t.Error("the two schemes produced the same address")
		}
	})

	t.Run("rejects short public key", func(t *testing.T) {
		if _, err := DeriveAddress(public[:32], AddressSHA256); err == nil {
			t.Error("expected an error for a 32-byte public key")
		}
	})

	t.Run("rejects unknown scheme", func(t *testing.T) {
		if _, err := DeriveAddress(public[:], AddressScheme(99)); err == nil {
			t.Error("expected an error for an unknown scheme")
		}
	})
}

func TestDeriveAddressDeterministic(t *testing.T) {
	p := NewProvider()
	kp, err := p.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}

	a1, err := DeriveAddress(kp.Public[:], AddressSHA256)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	a2, err := DeriveAddress(kp.Public[:], AddressSHA256)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	if a1 != a2 {
		t.Error("address derivation is not deterministic")
	}
}

func TestParseAddressScheme(t *testing.T) {
	tests := []struct {
		name    string
		want    AddressScheme
		wantErr bool
	}{
		{name: "sha256", want: AddressSHA256},
		{name: "keccak256", want: AddressKeccak256},
		{name: "sha3", wantErr: true},
		{name: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseAddressScheme(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAddressScheme(%q): expected an error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAddressScheme(%q) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAddressScheme(%q) = %v, want %v", tt.name, got, tt.want)
		}
		if got.String() != tt.name {
			t.Errorf("String() round trip: got %q, want %q", got.String(), tt.name)
		}
	}
}

func TestChecksumAddress(t *testing.T) {
	// EIP-55 reference vectors.
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, want := range vectors {
		raw, err := hex.DecodeString(want[2:42])
		if err != nil {
			t.Fatalf("bad test vector %q: %v", want, err)
		}
		var addr [AddressSize]byte
		copy(addr[:], raw)
		if got := ChecksumAddress(addr); got != want {
			t.Errorf("ChecksumAddress = %s, want %s", got, want)
		}
	}
}
