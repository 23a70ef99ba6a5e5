package auth

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "secret" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "secret") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected password mismatch")
	}
}

func TestCheckPasswordGarbageHash(t *testing.T) {
	if CheckPassword("not-a-bcrypt-hash", "secret") {
		t.Fatalf("expected garbage hash to fail verification")
	}
}
