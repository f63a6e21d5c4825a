package tokens

import (
	"testing"
	"time"
)

func TestGenerateResetToken(t *testing.T) {
	t.Run("returns matching plaintext and hash", func(t *testing.T) {
		plaintext, hash, err := GenerateResetToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plaintext) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(plaintext))
		}
		if HashToken(plaintext) != hash {
			t.Error("hash does not match plaintext digest")
		}
	})

	t.Run("tokens are unique", func(t *testing.T) {
		p1, _, err := GenerateResetToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p2, _, err := GenerateResetToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p1 == p2 {
			t.Error("expected unique tokens")
		}
	})
}

func TestHashToken(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		if HashToken("abc") != HashToken("abc") {
			t.Error("hash must be deterministic")
		}
		if HashToken("abc") == HashToken("abd") {
			t.Error("different inputs must not collide")
		}
	})
}

func TestReachedExpirationTime(t *testing.T) {
	if ReachedExpirationTime(GetExpirationTime(time.Minute)) {
		t.Error("future expiry should not be reached")
	}
	if !ReachedExpirationTime(time.Now().Add(-time.Second)) {
		t.Error("past expiry should be reached")
	}
}
