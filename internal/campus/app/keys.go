package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/jwtx"
)

// InitTicketKeys loads the ticket signing key from the database, generating
// one on first start. Keys are sealed with the master key at rest, so tickets
// stay verifiable across restarts and replicas.
func InitTicketKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}

	keyManager, err := jwtx.NewKeyManager(ctx, store.NewKeyStoreAdapter(db), cfg.TicketIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ticket keys: %w", err)
	}

	logger.Info("ticket signing keys loaded",
		"issuer", keyManager.Issuer(),
		"keys", len(keyManager.KeySet().PublicJWKS().Keys),
	)
	return keyManager, nil
}
