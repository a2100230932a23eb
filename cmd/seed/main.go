// Command seed prepares a database for the API: indexes, the administrator account and,
// with -reindex, the program search index.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/auth"
	"github.com/campusnet/campusnet/backend/go-services/internal/config"
	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/programs"
	"github.com/campusnet/campusnet/backend/go-services/internal/search"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
)

func main() {
	reindex := flag.Bool("reindex", false, "push every program to the search index")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, func(attempt int, err error) {
		logger.Warnf("attempt %d/5: failed to connect to MongoDB: %v", attempt, err)
	})
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)

	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("failed to create indexes: %v", err)
	}
	logger.Infof("indexes ensured on %s", cfg.MongoDB.Database)

	created, err := auth.EnsureAdmin(ctx, users.NewMongoUserRepository(db.Collection(database.UsersCollection)), cfg.Admin)
	if err != nil {
		logger.Fatalf("admin seed failed: %v", err)
	}
	if created {
		logger.Infof("administrator %s created", cfg.Admin.Email)
	} else {
		logger.Infof("administrator %s already present", cfg.Admin.Email)
	}

	if !*reindex {
		return
	}
	if cfg.Search.Host == "" {
		logger.Fatalf("-reindex needs MEILISEARCH_HOST")
	}
	index := search.New(cfg.Search)
	list, err := programs.NewMongoRepository(db.Collection(database.ProgramsCollection)).List(ctx)
	if err != nil {
		logger.Fatalf("failed to list programs: %v", err)
	}
	failed := 0
	for _, p := range list {
		if err := index.Index(ctx, p); err != nil {
			failed++
			logger.Warnw("reindex failed", logger.Fields{"program": p.ID.Hex(), "error": err.Error()})
		}
	}
	logger.Infof("reindexed %d programs (%d failed)", len(list)-failed, failed)
}
