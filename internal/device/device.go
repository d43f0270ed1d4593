// Package device est le stockage local de l'appareil (équivalent
// AsyncStorage) : quelques enregistrements clé → JSON qui survivent au
// redémarrage de l'application.
package device

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
)

var ErrNotFound = errors.New("clé absente du stockage local")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// BadgerStore stocke les enregistrements dans une base BadgerDB locale
type BadgerStore struct {
	db *badger.DB
}

// Open ouvre le stockage dans dir, ou en mémoire si dir est vide
func Open(dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("création du dossier %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("ouverture du stockage local: %w", err)
	}
	if dir != "" {
		log.Printf("✅ Stockage local ouvert (%s)", dir)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture %s: %w", key, err)
	}
	return value, nil
}

func (s *BadgerStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("écriture %s: %w", key, err)
	}
	return nil
}

// Delete ne renvoie pas d'erreur si la clé est déjà absente
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("suppression %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
