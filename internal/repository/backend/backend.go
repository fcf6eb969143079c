// Package backend opens the document repository selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/porkyfarm/porcpro/internal/config"
	"github.com/porkyfarm/porcpro/internal/repository"
	"github.com/porkyfarm/porcpro/internal/repository/memory"
	"github.com/porkyfarm/porcpro/internal/repository/mongodb"
	"github.com/porkyfarm/porcpro/internal/repository/postgres"
	"github.com/porkyfarm/porcpro/internal/repository/s3"
	"github.com/porkyfarm/porcpro/internal/repository/sqlite"
)

// Open connects the driver named by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (repository.DocumentRepository, error) {
	var (
		repo repository.DocumentRepository
		err  error
	)
	switch cfg.Storage.Driver {
	case "", config.DriverMemory:
		return memory.NewRepository(), nil
	case config.DriverMongoDB:
		repo, err = opened[*mongodb.MongoDBRepository](mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName))
	case config.DriverSQLite:
		repo, err = opened[*sqlite.Repository](sqlite.NewRepository(ctx, cfg.SQLite.Path))
	case config.DriverPostgres:
		repo, err = opened[*postgres.Repository](postgres.NewRepository(ctx, cfg.Postgres.URL, postgres.Options{MaxConns: int32(cfg.Postgres.MaxConns)}))
	case config.DriverS3:
		repo, err = opened[*s3.Repository](s3.NewRepository(ctx, s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		}))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	return repo, nil
}

// opened keeps a failed constructor from leaking a typed nil into the interface.
func opened[R repository.DocumentRepository](r R, err error) (repository.DocumentRepository, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}
