package config

import (
	"crypto/rand"
	"io"
)

const secretsSettingsName = "secrets"

// Secrets are keys generated on first start and kept in the settings store.
type Secrets struct {
	SessionKey []byte
	CsrfKey    []byte
}

func LoadSecrets(store Store) (*Secrets, error) {
	s := &Secrets{}
	if err := store.GetSettings(secretsSettingsName, s); err != nil {
		return nil, err
	}

	dirty := false

	for _, key := range []*[]byte{&s.SessionKey, &s.CsrfKey} {
		if len(*key) >= 32 {
			continue
		}
		newKey := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, newKey); err != nil {
			return nil, err
		}
		*key = newKey
		dirty = true
	}

	if dirty {
		_ = store.PutSettings(secretsSettingsName, "System", "Initialising secrets", s)
	}

	return s, nil
}
