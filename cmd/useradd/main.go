// Command useradd registers an API user and prints a bearer token for it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jengzang/activity-backend-go/internal/config"
	"github.com/jengzang/activity-backend-go/internal/database"
	"github.com/jengzang/activity-backend-go/internal/logging"
	"github.com/jengzang/activity-backend-go/internal/middleware"
	"github.com/jengzang/activity-backend-go/internal/models"
	"github.com/jengzang/activity-backend-go/internal/repository"
	"github.com/jengzang/activity-backend-go/internal/service"
)

func main() {
	var (
		username = flag.String("name", "", "Username")
		timezone = flag.String("timezone", "", "IANA timezone, e.g. Europe/Paris (optional)")
		ttl      = flag.Duration("ttl", 365*24*time.Hour, "Token lifetime")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -name <username> [-timezone <tz>] [-ttl <duration>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *username == "" {
		flag.Usage()
		os.Exit(2)
	}
	if _, _, err := service.Localize(*timezone, time.Now(), true); err != nil {
		fmt.Fprintf(os.Stderr, "invalid timezone %q\n", *timezone)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := database.Init(database.Config{Path: cfg.Database.Path}); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()

	u := &models.User{Username: *username, Timezone: *timezone}
	if err := repository.NewUserRepository(database.GetDB()).Create(context.Background(), u); err != nil {
		logging.Fatal().Err(err).Str("username", *username).Msg("Failed to create user")
	}

	token, err := middleware.GenerateToken(cfg.Security.JWTSecret, u.ID, *ttl)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to sign token")
	}
	fmt.Printf("user_id=%d\ntoken=%s\n", u.ID, token)
}
