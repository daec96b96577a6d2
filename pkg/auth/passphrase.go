package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
	"igunfollowers/pkg/session"
)

const (
	// PassphraseEnv overrides the keychain passphrase for encrypted sessions
	PassphraseEnv = "IGUNFOLLOWERS_PASSPHRASE"

	keyringService = "igunfollowers"
	keyringUser    = "session-passphrase"
)

// SessionPassphrase returns the passphrase that encrypts session files.
// It comes from PassphraseEnv, else the system keychain; on first use a
// random one is generated and stored in the keychain.
func SessionPassphrase() (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	pass, err := keyring.Get(keyringService, keyringUser)
	if err == nil && pass != "" {
		return pass, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("keychain unavailable, set %s instead: %w", PassphraseEnv, err)
	}

	pass, err = generatePassphrase()
	if err != nil {
		return "", err
	}
	if err := keyring.Set(keyringService, keyringUser, pass); err != nil {
		return "", fmt.Errorf("failed to store passphrase in keychain: %w", err)
	}

	return pass, nil
}

// SessionCodec returns the codec for session files
func SessionCodec(encrypt bool) (session.Codec, error) {
	if !encrypt {
		return session.JSONCodec{}, nil
	}

	pass, err := SessionPassphrase()
	if err != nil {
		return nil, err
	}
	return session.EncryptedCodec{Passphrase: pass}, nil
}

func generatePassphrase() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
