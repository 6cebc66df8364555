// Package config keeps wiki settings inside the wiki's own repository,
// encrypted with AES-GCM when a key is configured.
package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

// Backend reads and writes raw settings blobs. GetConfig must return an error
// matching os.ErrNotExist when the named settings have never been written.
type Backend interface {
	GetConfig(name string) ([]byte, error)
	PutConfig(name string, content []byte, user, message string) error
}

type Store interface {
	GetSettings(name string, val interface{}) error
	PutSettings(name, user, message string, val interface{}) error
}

// NewStore returns an encrypted store if key is 64 hex characters, and a store
// that never persists anything otherwise.
func NewStore(backend Backend, key string) Store {
	keyBytes, err := hex.DecodeString(key)
	if err != nil || len(keyBytes) != 32 {
		if key != "" {
			log.Printf("Warning: config key must be 32 bytes of hex, ignoring it")
		}
		return &DummyStore{}
	}

	var k [32]byte
	copy(k[:], keyBytes)
	return &EncryptedStore{
		key:     k,
		backend: backend,
	}
}

type EncryptedStore struct {
	key     [32]byte
	backend Backend
}

func (c EncryptedStore) GetSettings(name string, val interface{}) error {
	data, err := c.backend.GetConfig(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s settings: %w", name, err)
	}

	gcm, err := c.gcm()
	if err != nil {
		return err
	}

	if len(data) < gcm.NonceSize() {
		return errors.New("malformed ciphertext")
	}

	decrypted, err := gcm.Open(nil,
		data[:gcm.NonceSize()],
		data[gcm.NonceSize():],
		nil,
	)
	if err != nil {
		return fmt.Errorf("decrypting %s settings: %w", name, err)
	}

	return json.Unmarshal(decrypted, val)
}

func (c EncryptedStore) PutSettings(name, user, message string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	gcm, err := c.gcm()
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}

	encrypted := gcm.Seal(nonce, nonce, data, nil)
	return c.backend.PutConfig(name, encrypted, user, message)
}

func (c EncryptedStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

type DummyStore struct{}

func (d DummyStore) GetSettings(name string, _ interface{}) error {
	log.Printf("Warning: no encryption key specified, using a blank '%s' config\n", name)
	return nil
}

func (d DummyStore) PutSettings(string, string, string, interface{}) error {
	return errors.New("no encryption key specified; config cannot be saved")
}
