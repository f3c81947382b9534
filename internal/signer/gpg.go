package signer

import (
	"bytes"
	"crypto"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ralt/metasync/internal/models"
)

// GPGSigner implements Signer using an OpenPGP private key
type GPGSigner struct {
	entity *openpgp.Entity
}

var _ Signer = (*GPGSigner)(nil)

// NewGPGSigner creates a signer from an armored or binary private key file.
// Key problems are configuration errors.
func NewGPGSigner(keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		return nil, models.Errorf(models.ErrInvalidConfig, "sign key path is empty")
	}

	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("failed to open key file: %w", err))
	}
	defer keyFile.Close()

	// Try to parse as armored key first
	entityList, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		if _, serr := keyFile.Seek(0, 0); serr != nil {
			return nil, models.NewError(models.ErrInvalidConfig, "", serr)
		}
		entityList, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("failed to read key: %w", err))
		}
	}

	var entity *openpgp.Entity
	for _, e := range entityList {
		if e.PrivateKey != nil {
			entity = e
			break
		}
	}
	if entity == nil {
		return nil, models.Errorf(models.ErrInvalidConfig, "no private key found in %s", keyPath)
	}

	if err := decrypt(entity, passphrase); err != nil {
		return nil, models.NewError(models.ErrInvalidConfig, "", err)
	}

	return &GPGSigner{entity: entity}, nil
}

func decrypt(entity *openpgp.Entity, passphrase string) error {
	keys := []*packet.PrivateKey{entity.PrivateKey}
	for _, subkey := range entity.Subkeys {
		if subkey.PrivateKey != nil {
			keys = append(keys, subkey.PrivateKey)
		}
	}

	for _, key := range keys {
		if !key.Encrypted {
			continue
		}
		if passphrase == "" {
			return fmt.Errorf("key is encrypted but no passphrase provided")
		}
		if err := key.Decrypt([]byte(passphrase)); err != nil {
			return fmt.Errorf("failed to decrypt private key: %w", err)
		}
	}
	return nil
}

// SignDetached creates an armored detached signature
func (s *GPGSigner) SignDetached(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), &packet.Config{
		DefaultHash: crypto.SHA512,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create detached signature: %w", err)
	}

	return buf.Bytes(), nil
}

// GetPublicKey returns the public key in armored format
func (s *GPGSigner) GetPublicKey() ([]byte, error) {
	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}

	if err := s.entity.Serialize(w); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Fingerprint returns the primary key fingerprint in upper-case hex
func (s *GPGSigner) Fingerprint() string {
	return strings.ToUpper(fmt.Sprintf("%x", s.entity.PrimaryKey.Fingerprint))
}
