package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
)

// HashConfig holds the parameters for the Argon2id key hashing algorithm
type HashConfig struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashConfig returns the default configuration for key hashing
func DefaultHashConfig() *HashConfig {
	return &HashConfig{
		Memory:      constants.DefaultPasswordHashMemory,
		Iterations:  constants.DefaultPasswordHashIterations,
		Parallelism: constants.DefaultPasswordHashParallelism,
		SaltLength:  constants.DefaultPasswordHashSaltLength,
		KeyLength:   constants.DefaultPasswordHashKeyLength,
	}
}

// ConfigFromAppConfig creates a hash config from the application config
func ConfigFromAppConfig(cfg *config.AppConfig) *HashConfig {
	return &HashConfig{
		Memory:      cfg.PasswordHash.Memory,
		Iterations:  cfg.PasswordHash.Iterations,
		Parallelism: cfg.PasswordHash.Parallelism,
		SaltLength:  cfg.PasswordHash.SaltLength,
		KeyLength:   cfg.PasswordHash.KeyLength,
	}
}

// HashKey generates an Argon2id hash of key.
// Returns the encoded hash and the salt used for hashing
func HashKey(key string, cfg *HashConfig) (string, string, error) {
	salt, err := GenerateRandomBytes(cfg.SaltLength)
	if err != nil {
		return "", "", err
	}

	hash := argon2.IDKey(
		[]byte(key),
		salt,
		cfg.Iterations,
		cfg.Memory,
		cfg.Parallelism,
		cfg.KeyLength,
	)

	encodedHash := base64.StdEncoding.EncodeToString(hash)
	encodedSalt := base64.StdEncoding.EncodeToString(salt)

	return encodedHash, encodedSalt, nil
}

// VerifyKey compares a key with a hash and salt using Argon2id
func VerifyKey(key, encodedHash, encodedSalt string, cfg *HashConfig) (bool, error) {
	hash, err := base64.StdEncoding.DecodeString(encodedHash)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	comparisonHash := argon2.IDKey(
		[]byte(key),
		salt,
		cfg.Iterations,
		cfg.Memory,
		cfg.Parallelism,
		uint32(len(hash)),
	)

	// Constant-time comparison
	match := subtle.ConstantTimeCompare(hash, comparisonHash) == 1
	return match, nil
}

// GenerateRandomBytes generates cryptographically secure random bytes
func GenerateRandomBytes(length uint32) ([]byte, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
