package util

import (
	"strings"
	"testing"
)

func TestGenerateTokenLengthAndAlphabet(t *testing.T) {
	token, err := GenerateToken(DefaultResetTokenLength)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if len(token) != DefaultResetTokenLength {
		t.Fatalf("expected length %d, got %d", DefaultResetTokenLength, len(token))
	}
	for _, r := range token {
		if !strings.ContainsRune(tokenAlphabet, r) {
			t.Fatalf("unexpected character %q in token", r)
		}
	}
	if !IsTokenShaped(token) {
		t.Fatalf("generated token should be token shaped")
	}
}

func TestGenerateTokenEnforcesMinimum(t *testing.T) {
	token, err := GenerateToken(8)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if len(token) != MinResetTokenLength {
		t.Fatalf("expected length raised to %d, got %d", MinResetTokenLength, len(token))
	}
}

func TestGenerateTokenIsUnpredictable(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken(32)
		if err != nil {
			t.Fatalf("GenerateToken returned error: %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = struct{}{}
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("abc")
	if a != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected digest %s", a)
	}
	if HashToken("abd") == a {
		t.Fatalf("different tokens must hash differently")
	}
}

func TestIsTokenShaped(t *testing.T) {
	if IsTokenShaped("short") {
		t.Fatalf("short input accepted")
	}
	if IsTokenShaped(strings.Repeat("a", 40) + "/") {
		t.Fatalf("non-alphanumeric input accepted")
	}
	if IsTokenShaped(strings.Repeat("a", 300)) {
		t.Fatalf("oversized input accepted")
	}
}
