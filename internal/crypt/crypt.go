package crypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// Suffix marks sealed artifacts. The pipeline excludes it from watching so
// staged ciphertext never re-enters the loop.
const Suffix = ".sealed"

var (
	ErrKeyNotFound  = errors.New("recipient key not found")
	ErrKeyAmbiguous = errors.New("recipient key id is ambiguous")
	ErrBadEnvelope  = errors.New("malformed sealed envelope")
)

// Envelope layout: magic, uint16 length of the RSA-encrypted symmetric key,
// the encrypted key, a 24-byte secretbox nonce, then the sealed payload.
var magic = []byte("SWv1")

const (
	symKeySize = 32
	nonceSize  = 24
)

// Sealer encrypts payloads for a single recipient resolved once at startup.
// It holds no mutable state and is safe for concurrent use.
type Sealer struct {
	keyID string
	pub   *rsa.PublicKey
}

// NewSealer resolves keyID against the keyring directory. An unresolvable or
// ambiguous id fails here, before any file is processed.
func NewSealer(keyringDir, keyID string) (*Sealer, error) {
	resolved, err := ResolveKey(keyringDir, keyID)
	if err != nil {
		return nil, err
	}

	pub, err := LoadPublicKey(resolved.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key for %s: %w", resolved.ID, err)
	}

	return &Sealer{keyID: resolved.ID, pub: pub}, nil
}

func (s *Sealer) KeyID() string {
	return s.keyID
}

// Seal encrypts plaintext for the recipient: a fresh 32-byte symmetric key
// seals the payload with secretbox, and the symmetric key travels RSA-encrypted
// in the envelope header.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	symKey := make([]byte, symKeySize)
	if _, err := io.ReadFull(rand.Reader, symKey); err != nil {
		return nil, fmt.Errorf("failed to generate symmetric key: %w", err)
	}

	encKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, s.pub, symKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt symmetric key: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	var key [symKeySize]byte
	copy(key[:], symKey)

	out := make([]byte, 0, len(magic)+2+len(encKey)+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, magic...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(encKey)))
	out = append(out, encKey...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, plaintext, &nonce, &key)

	return out, nil
}

// Open decrypts an envelope produced by Seal using the recipient's private key.
func Open(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	rest := ciphertext
	if len(rest) < len(magic)+2 || string(rest[:len(magic)]) != string(magic) {
		return nil, ErrBadEnvelope
	}
	rest = rest[len(magic):]

	keyLen := int(binary.BigEndian.Uint16(rest))
	rest = rest[2:]
	if len(rest) < keyLen+nonceSize {
		return nil, ErrBadEnvelope
	}

	encKey := rest[:keyLen]
	rest = rest[keyLen:]

	var nonce [nonceSize]byte
	copy(nonce[:], rest[:nonceSize])
	rest = rest[nonceSize:]

	symKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, encKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt symmetric key: %w", err)
	}
	if len(symKey) != symKeySize {
		return nil, ErrBadEnvelope
	}

	var key [symKeySize]byte
	copy(key[:], symKey)

	plaintext, ok := secretbox.Open(nil, rest, &nonce, &key)
	if !ok {
		return nil, fmt.Errorf("%w: payload authentication failed", ErrBadEnvelope)
	}

	return plaintext, nil
}
