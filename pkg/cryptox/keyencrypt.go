package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// MasterKeyEnv is read when no master key file is configured.
const MasterKeyEnv = "CAMPUS_MASTER_KEY"

var (
	masterKeyMu   sync.Mutex
	masterKey     []byte
	masterKeyPath string
)

// SetMasterKeyPath configures where to load the master encryption key from.
// Must be called before the first EncryptPrivateKey/DecryptPrivateKey.
func SetMasterKeyPath(path string) {
	masterKeyMu.Lock()
	defer masterKeyMu.Unlock()
	masterKeyPath = path
	masterKey = nil
}

// loadMasterKey derives a 32-byte AES-256 key from the key file, then the
// environment, and finally from random bytes. The random fallback only
// suits development: sealed keys will not open after a restart.
func loadMasterKey() ([]byte, error) {
	var material []byte

	switch {
	case masterKeyPath != "":
		data, err := os.ReadFile(masterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		material = data
	case os.Getenv(MasterKeyEnv) != "":
		material = []byte(os.Getenv(MasterKeyEnv))
	default:
		material = make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral master key: %w", err)
		}
	}

	sum := sha256.Sum256(material)
	return sum[:], nil
}

func masterGCM() (cipher.AEAD, error) {
	masterKeyMu.Lock()
	defer masterKeyMu.Unlock()

	if masterKey == nil {
		key, err := loadMasterKey()
		if err != nil {
			return nil, err
		}
		masterKey = key
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// EncryptPrivateKey seals a PEM-encoded private key with AES-256-GCM.
// Output layout: [nonce][ciphertext+tag].
func EncryptPrivateKey(pemData []byte) ([]byte, error) {
	gcm, err := masterGCM()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, pemData, nil), nil
}

// DecryptPrivateKey opens data produced by EncryptPrivateKey.
func DecryptPrivateKey(sealed []byte) ([]byte, error) {
	gcm, err := masterGCM()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key: %w", err)
	}

	n := gcm.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("ciphertext too short")
	}

	plain, err := gcm.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plain, nil
}

// ResetMasterKeyForTesting forgets the cached key so the next call reloads it.
func ResetMasterKeyForTesting() {
	masterKeyMu.Lock()
	defer masterKeyMu.Unlock()
	masterKey = nil
	masterKeyPath = ""
}
