package state

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// InitSecret loads the RSA key pair used to verify principals. The private
// key is optional: a node that only verifies tokens can run without it.
func InitSecret(privatePath, publicPath string) (*JwtSecret, error) {
	pubKeyBytes, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, err
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	secret := &JwtSecret{Public: pubKey}

	privKeyBytes, err := os.ReadFile(privatePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", privatePath).Msg("private key not found, token issuing disabled")
			return secret, nil
		}
		return nil, err
	}

	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	secret.Private = privKey

	log.Info().Msg("JWT secret initialized successfully")
	return secret, nil
}
