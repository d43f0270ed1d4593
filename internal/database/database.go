package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"sneaker_store/internal/config"
	"sneaker_store/internal/utils"
)

// ConnectDatabases choisit Redis si REDIS_HOST est défini, sinon la mémoire
func ConnectDatabases(cfg config.Config) (Store, error) {
	var store Store
	if cfg.RedisHost != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := connectRedis(ctx, cfg.RedisHost, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		store = NewRedisStore(client)
	} else {
		log.Println("⚠️ REDIS_HOST absent, stockage en mémoire (données perdues à l'arrêt)")
		store = NewMemoryStore()
	}

	if cfg.SeedFile != "" {
		if err := LoadSeedFile(context.Background(), store, cfg.SeedFile); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func connectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("impossible de se connecter à Redis: %w", err)
	}
	log.Println("✅ Connecté à Redis")
	return client, nil
}

// LoadSeedFile importe un db.json (format json-server)
func LoadSeedFile(ctx context.Context, store Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lecture seed %s: %w", path, err)
	}
	return Seed(ctx, store, data)
}

// Seed importe les collections connues d'un db.json. Les mots de passe en
// clair sont hashés à l'import.
func Seed(ctx context.Context, store Store, data []byte) error {
	root, err := Decode(data)
	if err != nil {
		return fmt.Errorf("seed illisible: %w", err)
	}

	count := 0
	for _, collection := range []string{Products, Cart, Users} {
		items, ok := root[collection].([]interface{})
		if !ok {
			continue
		}
		for _, raw := range items {
			obj, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			doc := Document(obj)
			if collection == Users {
				if err := HashUserPassword(doc); err != nil {
					return err
				}
			}
			if _, err := store.Create(ctx, collection, doc); err != nil {
				return fmt.Errorf("seed %s: %w", collection, err)
			}
			count++
		}
	}
	log.Printf("✅ Seed importé : %d documents", count)
	return nil
}

// HashUserPassword remplace un mot de passe en clair par son hash Argon2id
func HashUserPassword(doc Document) error {
	plain, _ := doc["password"].(string)
	if plain == "" || utils.IsArgon2Hash(plain) {
		return nil
	}
	hashed, err := utils.HashPassword(plain)
	if err != nil {
		return fmt.Errorf("hash mot de passe: %w", err)
	}
	doc["password"] = hashed
	return nil
}
