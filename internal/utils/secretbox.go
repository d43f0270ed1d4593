package utils

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	nonceSize = 24
)

var ErrSealedData = errors.New("données chiffrées invalides ou clé incorrecte")

// NewKey génère une clé aléatoire pour Seal/Open
func NewKey() (*[KeySize]byte, error) {
	key := new([KeySize]byte)
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal chiffre et authentifie data. Le nonce est préfixé au résultat.
func Seal(key *[KeySize]byte, data []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], data, &nonce, key), nil
}

// Open déchiffre un résultat de Seal
func Open(key *[KeySize]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrSealedData
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrSealedData
	}
	return plain, nil
}
