package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aastarcommunity/keyvault/crypto/keystore"
	"github.com/aastarcommunity/keyvault/enclave"
)

func TestSignatureResultLayout(t *testing.T) {
	r := &enclave.SignatureResult{SignatureLen: 64, RecoveryID: 1}
	for i := range r.Signature {
		r.Signature[i] = byte(i)
	}

	buf := make([]byte, SignatureResultSize)
	n, err := MarshalSignatureResult(buf, r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if n != SignatureResultSize {
		t.Errorf("expected %d bytes written, got %d", SignatureResultSize, n)
	}

	// Field offsets: signature at 0, length at 64, recovery id at 68.
	if !bytes.Equal(buf[0:64], r.Signature[:]) {
		t.Error("signature bytes misplaced")
	}
	if layout.Uint32(buf[64:68]) != 64 {
		t.Error("signature length misplaced")
	}
	if buf[68] != 1 {
		t.Error("recovery id misplaced")
	}
	if buf[69] != 0 || buf[70] != 0 || buf[71] != 0 {
		t.Error("trailing padding not zeroed")
	}

	got, err := UnmarshalSignatureResult(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if *got != *r {
		t.Error("round trip mismatch")
	}

	t.Run("short buffer untouched", func(t *testing.T) {
		short := make([]byte, SignatureResultSize-1)
		if _, err := MarshalSignatureResult(short, r); !errors.Is(err, enclave.ErrShortBuffer) {
			t.Fatalf("expected ErrShortBuffer, got %v", err)
		}
		for i, b := range short {
			if b != 0 {
				t.Fatalf("short buffer written at offset %d", i)
			}
		}
		if _, err := UnmarshalSignatureResult(short); !errors.Is(err, enclave.ErrShortBuffer) {
			t.Errorf("expected ErrShortBuffer, got %v", err)
		}
	})
}

func TestPublicKeyResultLayout(t *testing.T) {
	r := &enclave.PublicKeyResult{PublicKeyLen: 64}
	for i := range r.PublicKey {
		r.PublicKey[i] = byte(i + 1)
	}
	for i := range r.Address {
		r.Address[i] = byte(0xA0 + i)
	}

	buf := make([]byte, PublicKeyResultSize)
	if _, err := MarshalPublicKeyResult(buf, r); err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !bytes.Equal(buf[0:64], r.PublicKey[:]) {
		t.Error("public key misplaced")
	}
	if layout.Uint32(buf[64:68]) != 64 {
		t.Error("public key length misplaced")
	}
	if !bytes.Equal(buf[68:88], r.Address[:]) {
		t.Error("address misplaced")
	}

	got, err := UnmarshalPublicKeyResult(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if *got != *r {
		t.Error("round trip mismatch")
	}

	if _, err := MarshalPublicKeyResult(make([]byte, 95), r); !errors.Is(err, enclave.ErrShortBuffer) {
		t.Errorf("expected ErrShortBuffer, got %v", err)
	}
}

func TestKeyListLayout(t *testing.T) {
	mkInfo := func(id string, usage uint32) keystore.KeyInfo {
		info := keystore.KeyInfo{
			KeyID:        id,
			KeyType:      keystore.KeyTypeECDSASecp256k1,
			Status:       keystore.KeyStatusActive,
			CreatedTime:  1700000000,
			LastUsedTime: 1700000100,
			UsageCount:   usage,
		}
		for i := range info.Address {
			info.Address[i] = byte(usage)
		}
		return info
	}

	t.Run("round trip", func(t *testing.T) {
		r := &enclave.KeyListResult{Keys: []keystore.KeyInfo{
			mkInfo("first", 1),
			mkInfo("second", 2),
		}}

		buf := make([]byte, KeyListResultSize)
		if _, err := MarshalKeyListResult(buf, r); err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if layout.Uint32(buf[0:4]) != 2 {
			t.Error("key count misplaced")
		}

		got, err := UnmarshalKeyListResult(buf)
		if err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if len(got.Keys) != 2 {
			t.Fatalf("expected 2 keys, got %d", len(got.Keys))
		}
		for i := range r.Keys {
			if got.Keys[i] != r.Keys[i] {
				t.Errorf("key %d round trip mismatch", i)
			}
		}
	})

	t.Run("record offsets", func(t *testing.T) {
		r := &enclave.KeyListResult{Keys: []keystore.KeyInfo{mkInfo("probe", 7)}}
		buf := make([]byte, KeyListResultSize)
		if _, err := MarshalKeyListResult(buf, r); err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}

		// First record starts after the count and its alignment padding.
		rec := buf[8 : 8+KeyInfoSize]
		if !bytes.HasPrefix(rec, []byte("probe\x00")) {
			t.Error("key id not NUL-padded at record start")
		}
		if layout.Uint32(rec[64:68]) != uint32(keystore.KeyTypeECDSASecp256k1) {
			t.Error("key type misplaced")
		}
		if layout.Uint64(rec[72:80]) != 1700000000 {
			t.Error("created time misplaced")
		}
		if layout.Uint32(rec[88:92]) != 7 {
			t.Error("usage count misplaced")
		}
	})

	t.Run("empty list", func(t *testing.T) {
		buf := make([]byte, KeyListResultSize)
		if _, err := MarshalKeyListResult(buf, &enclave.KeyListResult{}); err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		got, err := UnmarshalKeyListResult(buf)
		if err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if len(got.Keys) != 0 {
			t.Errorf("expected no keys, got %d", len(got.Keys))
		}
	})

	t.Run("overfull list rejected", func(t *testing.T) {
		r := &enclave.KeyListResult{Keys: make([]keystore.KeyInfo, KeyListMaxKeys+1)}
		for i := range r.Keys {
			r.Keys[i] = mkInfo("k", uint32(i))
		}
		buf := make([]byte, KeyListResultSize)
		if _, err := MarshalKeyListResult(buf, r); err == nil {
			t.Error("expected an error for a list beyond layout capacity")
		}
	})

	t.Run("corrupt count rejected", func(t *testing.T) {
		buf := make([]byte, KeyListResultSize)
		layout.PutUint32(buf[0:4], KeyListMaxKeys+1)
		if _, err := UnmarshalKeyListResult(buf); err == nil {
			t.Error("expected an error for a count beyond layout capacity")
		}
	})
}

func TestVersionInfoLayout(t *testing.T) {
	r := &enclave.VersionInfo{Major: 1, Minor: 2, Patch: 3, BuildInfo: "keyvault test build"}

	buf := make([]byte, VersionInfoSize)
	if _, err := MarshalVersionInfo(buf, r); err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if layout.Uint32(buf[0:4]) != 1 || layout.Uint32(buf[4:8]) != 2 || layout.Uint32(buf[8:12]) != 3 {
		t.Error("version numbers misplaced")
	}

	got, err := UnmarshalVersionInfo(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if *got != *r {
		t.Error("round trip mismatch")
	}

	t.Run("oversized build string truncated", func(t *testing.T) {
		long := &enclave.VersionInfo{BuildInfo: string(make([]byte, 100))}
		if _, err := MarshalVersionInfo(buf, long); err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		got, err := UnmarshalVersionInfo(buf)
		if err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if len(got.BuildInfo) > 63 {
			t.Errorf("build string not truncated: %d bytes", len(got.BuildInfo))
		}
	})
}

func TestHealthResultLayout(t *testing.T) {
	r := &enclave.HealthResult{
		Status:          0,
		ActiveSessions:  3,
		TotalOperations: 42,
		StorageUsage:    864,
		Uptime:          7200,
	}

	buf := make([]byte, HealthResultSize)
	if _, err := MarshalHealthResult(buf, r); err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if layout.Uint32(buf[4:8]) != 3 {
		t.Error("session count misplaced")
	}
	if layout.Uint64(buf[16:24]) != 7200 {
		t.Error("uptime misplaced")
	}

	got, err := UnmarshalHealthResult(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if *got != *r {
		t.Error("round trip mismatch")
	}
}

func TestLayoutSizes(t *testing.T) {
	// The sizes are a wire contract; a change here breaks existing callers.
	if SignatureResultSize != 72 {
		t.Errorf("SignatureResultSize = %d", SignatureResultSize)
	}
	if PublicKeyResultSize != 96 {
		t.Errorf("PublicKeyResultSize = %d", PublicKeyResultSize)
	}
	if KeyInfoSize != 112 {
		t.Errorf("KeyInfoSize = %d", KeyInfoSize)
	}
	if KeyListResultSize != 1800 {
		t.Errorf("KeyListResultSize = %d", KeyListResultSize)
	}
	if VersionInfoSize != 76 {
		t.Errorf("VersionInfoSize = %d", VersionInfoSize)
	}
	if HealthResultSize != 24 {
		t.Errorf("HealthResultSize = %d", HealthResultSize)
	}
}
