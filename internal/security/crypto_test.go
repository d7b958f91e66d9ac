package security_test

import (
	"encoding/base64"
	"testing"

	"github.com/jinxlo/api-dashboard/internal/security"
)

func sequentialKey(n int) []byte {
	key := make([]byte, n)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptor_EncryptDecrypt(t *testing.T) {
	encryptor, err := security.NewEncryptor(sequentialKey(32))
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"api key", "sk-3q2-7wAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		{"long", "this is a much longer string that contains more data and should still work correctly with the encryption and decryption process"},
		{"unicode", "unicode: 日本語 中文 한국어 🎉"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := encryptor.Encrypt([]byte(tt.plaintext))
			if err != nil {
				t.Fatalf("encrypt failed: %v", err)
			}

			decrypted, err := encryptor.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("decrypt failed: %v", err)
			}

			if string(decrypted) != tt.plaintext {
				t.Errorf("decrypted text does not match: got %q, want %q", decrypted, tt.plaintext)
			}
		})
	}
}

func TestEncryptor_EncryptString(t *testing.T) {
	encryptor, err := security.NewEncryptorFromSecret("session-secret")
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	plaintext := "sk-secret-value"
	ciphertext, err := encryptor.EncryptString(plaintext)
	if err != nil {
		t.Fatalf("encrypt string failed: %v", err)
	}
	if ciphertext == plaintext {
		t.Error("ciphertext equals plaintext")
	}

	decrypted, err := encryptor.DecryptString(ciphertext)
	if err != nil {
		t.Fatalf("decrypt string failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("decrypted text does not match: got %q, want %q", decrypted, plaintext)
	}
}

func TestEncryptor_SecretDerivationIsStable(t *testing.T) {
	a, _ := security.NewEncryptorFromSecret("same-secret")
	b, _ := security.NewEncryptorFromSecret("same-secret")
	c, _ := security.NewEncryptorFromSecret("other-secret")

	sealed, err := a.EncryptString("sk-value")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if got, err := b.DecryptString(sealed); err != nil || got != "sk-value" {
		t.Errorf("expected same secret to decrypt, got %q, %v", got, err)
	}
	if _, err := c.DecryptString(sealed); err == nil {
		t.Error("expected different secret to fail decryption")
	}
}

func TestEncryptor_FromBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(sequentialKey(32))
	if _, err := security.NewEncryptorFromBase64(encoded); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if _, err := security.NewEncryptorFromBase64("not base64!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestEncryptor_InvalidKeyLength(t *testing.T) {
	for _, n := range []int{0, 15, 17, 31, 33} {
		if _, err := security.NewEncryptor(make([]byte, n)); err == nil {
			t.Errorf("expected error for key length %d, got nil", n)
		}
	}
}

func TestEncryptor_DifferentCiphertexts(t *testing.T) {
	encryptor, _ := security.NewEncryptor(sequentialKey(32))
	plaintext := []byte("same plaintext")

	ciphertext1, _ := encryptor.Encrypt(plaintext)
	ciphertext2, _ := encryptor.Encrypt(plaintext)

	if string(ciphertext1) == string(ciphertext2) {
		t.Error("expected different ciphertexts for same plaintext")
	}
}

func TestEncryptor_TamperedCiphertext(t *testing.T) {
	encryptor, _ := security.NewEncryptor(sequentialKey(32))

	ciphertext, _ := encryptor.Encrypt([]byte("payload"))
	ciphertext[len(ciphertext)-1] ^= 0xff

	if _, err := encryptor.Decrypt(ciphertext); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
	if _, err := encryptor.Decrypt([]byte("short")); err == nil {
		t.Error("expected error for short ciphertext")
	}
}
