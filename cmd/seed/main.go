// Command seed loads the demo admin account and events into an empty
// database, using the same environment as the server.
package main

import (
	"context"
	"log"

	"github.com/aussiebroadwan/campus/internal/campus/app"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := app.NewLogger(cfg, "campus-seed")
	cryptox.SetPepperPath(cfg.PepperFile)

	ctx := context.Background()
	db, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	if err := app.Seed(ctx, db, logger); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}
