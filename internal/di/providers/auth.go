package providers

import (
	"encoding/hex"

	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/auth"
	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the token signing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	// An explicitly configured key wins over the persisted one.
	if cfg.Auth.AccessTokenKey != "" {
		key, err := hex.DecodeString(cfg.Auth.AccessTokenKey)
		if err != nil {
			return nil, err
		}
		return AuthKey(key), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	cfg.Auth.AccessTokenKey = hex.EncodeToString(key)

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	keyHex := hex.EncodeToString([]byte(authKey))
	return auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration)
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*auth.Service, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return auth.NewService(storeHandle.Store, tokenService, log.Logger), nil
}
