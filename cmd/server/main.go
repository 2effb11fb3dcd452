package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savoria-pos/api/internal/cache"
	"github.com/savoria-pos/api/internal/config"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/router"
	"github.com/savoria-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Cache is best-effort: the API serves from Postgres when Redis is down.
	if err := cache.Init(cfg.RedisAddr, cfg.RedisPassword); err != nil {
		log.Printf("WARNING: Redis unavailable, running without cache: %v", err)
	} else {
		log.Println("Connected to Redis")
	}

	hub := ws.NewHub()
	go hub.Run()

	queries := database.New(pool)
	r := router.New(cfg, queries, pool, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
