// Package auth provides operator authentication for the Argus API.
// This file implements the operator API key: generation, and verification
// against the Argon2id hash held in the configuration.
package auth

import (
	"encoding/base64"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/utils"
)

// apiKeyBytes is the entropy of a generated operator key.
const apiKeyBytes = 32

// ErrAPIKeyNotConfigured is returned when no key hash is configured.
var ErrAPIKeyNotConfigured = errors.New("operator API key is not configured")

// APIKeyService verifies the operator API key.
// Only the hash and salt of the key are known to the service.
type APIKeyService struct {
	hash string
	salt string
	cfg  *HashConfig
}

// NewAPIKeyService creates a new APIKeyService from the auth settings and
// the hashing parameters the key was hashed with.
func NewAPIKeyService(settings *config.AuthSettings, cfg *HashConfig) *APIKeyService {
	if cfg == nil {
		cfg = DefaultHashConfig()
	}
	return &APIKeyService{
		hash: settings.APIKeyHash,
		salt: settings.APIKeySalt,
		cfg:  cfg,
	}
}

// Configured reports whether a key hash is available.
func (s *APIKeyService) Configured() bool {
	return s.hash != "" && s.salt != ""
}

// Verify checks apiKey against the configured hash.
func (s *APIKeyService) Verify(apiKey string) error {
	if !s.Configured() {
		return ErrAPIKeyNotConfigured
	}
	if apiKey == "" {
		return utils.NewUnauthorizedError(constants.MsgAuthRequired)
	}

	ok, err := VerifyKey(apiKey, s.hash, s.salt, s.cfg)
	if err != nil {
		log.Error().
			Err(err).
			Str("category", constants.LogCategoryAuth).
			Msg("Configured API key hash cannot be decoded")
		return utils.NewInternalServerError(err)
	}
	if !ok {
		return utils.NewInvalidCredentialsError()
	}
	return nil
}

// GenerateAPIKey creates a new random operator key and its hash.
//
// Returns:
//   - apiKey: The raw key to hand to the operator (only returned once)
//   - hash, salt: The values to put in the auth configuration
func GenerateAPIKey(cfg *HashConfig) (apiKey, hash, salt string, err error) {
	keyBytes, err := GenerateRandomBytes(apiKeyBytes)
	if err != nil {
		return "", "", "", err
	}
	apiKey = base64.RawURLEncoding.EncodeToString(keyBytes)

	hash, salt, err = HashKey(apiKey, cfg)
	if err != nil {
		return "", "", "", err
	}
	return apiKey, hash, salt, nil
}
