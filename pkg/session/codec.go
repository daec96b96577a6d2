package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	envelopeVersion = 1
)

// ErrWrongPassphrase is returned when an encrypted session cannot be opened
var ErrWrongPassphrase = errors.New("session: wrong passphrase or corrupted file")

// Codec converts sessions to and from their on-disk form
type Codec interface {
	Encode(s *Session) ([]byte, error)
	Decode(data []byte) (*Session, error)
}

// JSONCodec stores sessions as indented JSON
type JSONCodec struct{}

func (JSONCodec) Encode(s *Session) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Username == "" || len(s.Cookies) == 0 {
		return nil, errors.New("session file is missing username or cookies")
	}
	return &s, nil
}

// EncryptedCodec seals the JSON form with AES-GCM under a key derived from
// Passphrase. Every encoded file gets a fresh salt and nonce.
type EncryptedCodec struct {
	Passphrase string
}

type envelope struct {
	Version   int    `json:"version"`
	Salt      string `json:"salt"`
	Encrypted string `json:"encrypted"`
}

func (c EncryptedCodec) Encode(s *Session) ([]byte, error) {
	if c.Passphrase == "" {
		return nil, errors.New("session encryption requires a passphrase")
	}

	plaintext, err := JSONCodec{}.Encode(s)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	sealed, err := seal(plaintext, deriveKey(c.Passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt session: %w", err)
	}

	return json.MarshalIndent(envelope{
		Version:   envelopeVersion,
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
	}, "", "  ")
}

func (c EncryptedCodec) Decode(data []byte) (*Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse encrypted session: %w", err)
	}
	if env.Version != envelopeVersion || env.Salt == "" || env.Encrypted == "" {
		return nil, errors.New("session file is not an encrypted session")
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	plaintext, err := open(sealed, deriveKey(c.Passphrase, salt))
	if err != nil {
		return nil, ErrWrongPassphrase
	}

	return JSONCodec{}.Decode(plaintext)
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
}

func seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func open(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
