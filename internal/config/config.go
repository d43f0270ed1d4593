package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "http://localhost:3000"
	DefaultTimeout = 10 * time.Second
	DefaultPort    = "3000"
)

type Config struct {
	// Côté application
	StoreBaseURL string
	StoreTimeout time.Duration
	DeviceDir    string // vide = stockage en mémoire

	// Côté dev store
	Port          string
	RedisHost     string
	RedisPassword string
	SeedFile      string
}

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// FromEnv construit la configuration à partir des variables d'environnement
func FromEnv() Config {
	cfg := Config{
		StoreBaseURL:  strings.TrimRight(getEnv("STORE_BASE_URL", DefaultBaseURL), "/"),
		StoreTimeout:  DefaultTimeout,
		DeviceDir:     os.Getenv("DEVICE_DIR"),
		Port:          getEnv("PORT", DefaultPort),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SeedFile:      os.Getenv("STORE_SEED"),
	}

	if raw := os.Getenv("STORE_TIMEOUT"); raw != "" {
		cfg.StoreTimeout = parseTimeout(raw)
	}
	return cfg
}

// parseTimeout accepte "5s", "1m" ou un nombre de secondes
func parseTimeout(raw string) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("⚠️ STORE_TIMEOUT invalide (%q), utilisation de %s", raw, DefaultTimeout)
	return DefaultTimeout
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
