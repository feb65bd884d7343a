package library

import "testing"

func TestCredentialRoundTrip(t *testing.T) {
	hash, salt, err := GenerateCredential("libpass")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(salt) != 40 {
		t.Fatalf("want 40 hex chars of salt, got %d", len(salt))
	}
	if len(hash) != 64 {
		t.Fatalf("want 64 hex chars of hash, got %d", len(hash))
	}

	if !VerifyCredential("libpass", hash, salt) {
		t.Fatalf("verify should succeed for the original plaintext")
	}
	if VerifyCredential("wrongpass", hash, salt) {
		t.Fatalf("verify should fail for a different plaintext")
	}
}

func TestCredentialSaltIsUnique(t *testing.T) {
	hash1, salt1, _ := GenerateCredential("same")
	hash2, salt2, _ := GenerateCredential("same")
	if salt1 == salt2 {
		t.Fatalf("two credentials for the same plaintext share a salt")
	}
	if hash1 == hash2 {
		t.Fatalf("different salts must produce different hashes")
	}
}

func TestVerifyRequiresMatchingSalt(t *testing.T) {
	hash, _, _ := GenerateCredential("libpass")
	_, otherSalt, _ := GenerateCredential("libpass")
	if VerifyCredential("libpass", hash, otherSalt) {
		t.Fatalf("verify must fail when the salt does not match the hash")
	}
}

func TestVerifyAcceptsLowercaseStoredHash(t *testing.T) {
	hash, salt, _ := GenerateCredential("libpass")
	lower := ""
	for _, r := range hash {
		if r >= 'A' && r <= 'F' {
			r += 'a' - 'A'
		}
		lower += string(r)
	}
	if !VerifyCredential("libpass", lower, salt) {
		t.Fatalf("verify should be case-insensitive on the stored hash")
	}
}
