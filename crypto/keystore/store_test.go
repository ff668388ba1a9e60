package keystore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aastarcommunity/keyvault/crypto"
)

func newTestRecord(t *testing.T, keyID string, now uint64) *Record {
	t.Helper()
	kp, err := crypto.NewMockProvider().GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	addr, err := crypto.DeriveAddress(kp.Public[:], crypto.AddressSHA256)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	rec, err := NewRecord(keyID, KeyTypeECDSASecp256k1, kp, addr, now)
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}
	return rec
}

func TestNewRecord(t *testing.T) {
	t.Run("rejects empty key id", func(t *testing.T) {
		kp, _ := crypto.NewMockProvider().GenerateKeypair()
		if _, err := NewRecord("", KeyTypeECDSASecp256k1, kp, [crypto.AddressSize]byte{}, 0); err == nil {
			t.Error("expected an error for an empty key id")
		}
	})

	t.Run("rejects oversized key id", func(t *testing.T) {
		kp, _ := crypto.NewMockProvider().GenerateKeypair()
		long := make([]byte, MaxKeyIDSize)
		for i := range long {
			long[i] = 'a'
		}
		if _, err := NewRecord(string(long), KeyTypeECDSASecp256k1, kp, [crypto.AddressSize]byte{}, 0); err == nil {
			t.Error("expected an error for a key id at the size limit")
		}
	})

	t.Run("accepts maximum-length key id", func(t *testing.T) {
		kp, _ := crypto.NewMockProvider().GenerateKeypair()
		long := make([]byte, MaxKeyIDSize-1)
		for i := range long {
			long[i] = 'a'
		}
		if _, err := NewRecord(string(long), KeyTypeECDSASecp256k1, kp, [crypto.AddressSize]byte{}, 0); err != nil {
			t.Errorf("expected a 63-byte key id to be accepted, got: %v", err)
		}
	})

	t.Run("rejects key id with embedded NUL", func(t *testing.T) {
		kp, _ := crypto.NewMockProvider().GenerateKeypair()
		if _, err := NewRecord("split\x00id", KeyTypeECDSASecp256k1, kp, [crypto.AddressSize]byte{}, 0); err == nil {
			t.Error("expected an error for a key id containing a NUL byte")
		}
	})

	t.Run("rejects nil keypair", func(t *testing.T) {
		if _, err := NewRecord("key", KeyTypeECDSASecp256k1, nil, [crypto.AddressSize]byte{}, 0); err == nil {
			t.Error("expected an error for a nil keypair")
		}
	})

	t.Run("starts active with zero usage", func(t *testing.T) {
		rec := newTestRecord(t, "fresh", 1000)
		info := rec.Info()
		if info.Status != KeyStatusActive {
			t.Errorf("expected active status, got %v", info.Status)
		}
		if info.UsageCount != 0 {
			t.Errorf("expected zero usage count, got %d", info.UsageCount)
		}
		if info.CreatedTime != 1000 || info.LastUsedTime != 1000 {
			t.Error("creation and last-used timestamps should both be the creation time")
		}
	})
}

func TestStoreInsert(t *testing.T) {
	t.Run("capacity enforced", func(t *testing.T) {
		s := NewStore(3)
		for i := 0; i < 3; i++ {
			if err := s.Insert(newTestRecord(t, fmt.Sprintf("key-%d", i), 0)); err != nil {
				t.Fatalf("Insert %d failed: %v", i, err)
			}
		}
		if !s.Full() {
			t.Error("store should report full at capacity")
		}
		err := s.Insert(newTestRecord(t, "overflow", 0))
		if !errors.Is(err, ErrFull) {
			t.Errorf("expected ErrFull, got %v", err)
		}
		if s.Len() != 3 {
			t.Errorf("failed insert changed the store: len %d", s.Len())
		}
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		s := NewStore(4)
		if err := s.Insert(newTestRecord(t, "dup", 0)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		err := s.Insert(newTestRecord(t, "dup", 0))
		if !errors.Is(err, ErrDuplicateID) {
			t.Errorf("expected ErrDuplicateID, got %v", err)
		}
		if s.Len() != 1 {
			t.Errorf("failed insert changed the store: len %d", s.Len())
		}
	})

	t.Run("nil record rejected", func(t *testing.T) {
		s := NewStore(4)
		if err := s.Insert(nil); err == nil {
			t.Error("expected an error for a nil record")
		}
	})

	t.Run("non-positive capacity falls back to default", func(t *testing.T) {
		if got := NewStore(0).Capacity(); got != DefaultCapacity {
			t.Errorf("expected default capacity %d, got %d", DefaultCapacity, got)
		}
		if got := NewStore(-5).Capacity(); got != DefaultCapacity {
			t.Errorf("expected default capacity %d, got %d", DefaultCapacity, got)
		}
	})
}

func TestStoreFind(t *testing.T) {
	s := NewStore(4)
	rec := newTestRecord(t, "alpha", 0)
	if err := s.Insert(rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if got := s.Find("alpha"); got != rec {
		t.Error("Find did not return the inserted record")
	}
	if s.Find("Alpha") != nil {
		t.Error("Find must match byte-for-byte, not case-insensitively")
	}
	if s.Find("alpha ") != nil {
		t.Error("Find must not match a key id with trailing bytes")
	}
	if s.Find("missing") != nil {
		t.Error("Find returned a record for an absent id")
	}
}

func TestSnapshotPublic(t *testing.T) {
	s := NewStore(8)
	ids := []string{"first", "second", "third"}
	for i, id := range ids {
		if err := s.Insert(newTestRecord(t, id, uint64(100+i))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	infos := s.SnapshotPublic()
	if len(infos) != len(ids) {
		t.Fatalf("expected %d entries, got %d", len(ids), len(infos))
	}
	for i, id := range ids {
		if infos[i].KeyID != id {
			t.Errorf("entry %d: expected %q, got %q (snapshot must preserve creation order)", i, id, infos[i].KeyID)
		}
	}
}

func TestStoreWipe(t *testing.T) {
	s := NewStore(4)
	rec := newTestRecord(t, "doomed", 0)
	if err := s.Insert(rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	s.Wipe()

	if s.Len() != 0 {
		t.Errorf("expected empty store after Wipe, got len %d", s.Len())
	}
	if s.Find("doomed") != nil {
		t.Error("wiped record still findable")
	}
	var zeroPub [crypto.PublicKeySize]byte
	if rec.PublicKey() != zeroPub {
		t.Error("wiped record retained public material")
	}

	// A wiped store accepts new records.
	if err := s.Insert(newTestRecord(t, "fresh", 0)); err != nil {
		t.Errorf("Insert after Wipe failed: %v", err)
	}
}

func TestRecordSign(t *testing.T) {
	m := crypto.NewMockProvider()
	rec := newTestRecord(t, "signer", 50)

	digest := make([]byte, crypto.DigestSize)
	sig, err := rec.Sign(m, digest)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if sig == nil {
		t.Fatal("Sign returned a nil signature")
	}
	if m.SignCalls != 1 {
		t.Errorf("expected one provider call, got %d", m.SignCalls)
	}

	rec.MarkUsed(75)
	info := rec.Info()
	if info.UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", info.UsageCount)
	}
	if info.LastUsedTime != 75 {
		t.Errorf("expected last used 75, got %d", info.LastUsedTime)
	}
	if info.CreatedTime != 50 {
		t.Errorf("creation time must not change on use, got %d", info.CreatedTime)
	}
}
