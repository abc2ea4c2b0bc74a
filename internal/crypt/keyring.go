package crypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvedKey is one usable recipient entry in the keyring.
type ResolvedKey struct {
	ID            string
	PublicKeyPath string
}

// ResolveKey matches keyID against the `<id>.pub` entries of the keyring
// directory. An exact id match wins; otherwise a substring match is accepted
// as long as it is unique.
func ResolveKey(keyringDir, keyID string) (*ResolvedKey, error) {
	entries, err := os.ReadDir(keyringDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring %s: %w", keyringDir, err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".pub") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".pub"))
	}

	var matches []string
	for _, id := range ids {
		if id == keyID {
			matches = []string{id}
			break
		}
		if strings.Contains(id, keyID) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q in %s (available: %s)",
			ErrKeyNotFound, keyID, keyringDir, strings.Join(ids, ", "))
	case 1:
		return &ResolvedKey{
			ID:            matches[0],
			PublicKeyPath: filepath.Join(keyringDir, matches[0]+".pub"),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q matches %s",
			ErrKeyAmbiguous, keyID, strings.Join(matches, ", "))
	}
}

func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}

	return rsaPub, nil
}

func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing private key")
	}

	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// GenerateKeyPair writes `<id>` and `<id>.pub` PEM files into the keyring.
func GenerateKeyPair(keyringDir, id string) error {
	if err := os.MkdirAll(keyringDir, 0700); err != nil {
		return fmt.Errorf("failed to create keyring dir: %w", err)
	}

	privatePath := filepath.Join(keyringDir, id)
	publicPath := privatePath + ".pub"

	if _, err := os.Stat(publicPath); err == nil {
		return fmt.Errorf("key %q already exists in %s", id, keyringDir)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	privPem := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	if err := os.WriteFile(privatePath, privPem, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	pubASN1, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}

	pubPem := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubASN1,
	})
	if err := os.WriteFile(publicPath, pubPem, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	return nil
}
