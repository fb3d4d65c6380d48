package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"tripsense-api/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	hasher := core.NewBcryptHasher()
	issuer := core.NewTokenIssuer([]byte(cfg.TokenSecret), time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	userRepo := core.NewPgUserRepository(db)
	roleRepo := core.NewPgRoleRepository(db)
	prefRepo := core.NewPgPreferenceRepository(db)
	authService := core.NewRepositoryAuthService(userRepo, roleRepo, hasher, issuer)

	// Seeding runs before the server accepts traffic.
	if err := core.BootstrapAdmin(ctx, core.NewPgSeedStore(db), hasher, cfg); err != nil {
		log.Fatalf("bootstrap admin failed: %v", err)
	}

	router := core.NewRouter(cfg, core.RouterDeps{
		Auth:        authService,
		Issuer:      issuer,
		Users:       userRepo,
		Roles:       roleRepo,
		Preferences: prefRepo,
		Recommender: core.NewHTTPRecommendationClient(cfg.RecommendationURL),
		Cache:       core.NewRecommendationCache(redisClient, time.Duration(cfg.RecommendationCacheTTL)*time.Second),
		Pool:        db,
		Redis:       redisClient,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
