package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xavierca1/leadflow/internal/auth"
	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/database"
	"github.com/xavierca1/leadflow/internal/logging"
)

// issue-token mints a bearer token for a user stored in Postgres.
func main() {
	userID := flag.String("user", "", "id of the user to issue the token for")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_TTL_HOURS)")
	flag.Parse()

	cfg := config.Load()
	log := logging.New(cfg.AppEnv, cfg.LogLevel)

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.JWTSecret == "" || cfg.DatabaseURL == "" {
		log.Fatal("JWT_SECRET and DATABASE_URL are required")
	}
	if *ttl <= 0 {
		*ttl = cfg.JWTTTL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL, 1, 1)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	user, err := database.NewUserRepository(db).FindByID(ctx, *userID)
	if err != nil {
		log.WithError(err).WithField("user_id", *userID).Fatal("failed to load user")
	}

	token, err := auth.GenerateJWT(user.ID, string(user.Role), cfg.JWTSecret, *ttl)
	if err != nil {
		log.WithError(err).Fatal("failed to sign token")
	}

	fmt.Println(token)
}
