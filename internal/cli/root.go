// Package cli implements toolkitctl, the operator command line for the
// catalog store. Every command runs with admin rights.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toolkithub/internal/cache"
	"toolkithub/internal/config"
	"toolkithub/internal/database"
	"toolkithub/internal/repositories"
	"toolkithub/internal/services"
)

// Backend holds the services the commands drive.
type Backend struct {
	Tools    services.ToolService
	Transfer services.TransferService
	Close    func(context.Context) error
}

// Opener connects a Backend using the resolved settings.
type Opener func(ctx context.Context, v *viper.Viper) (*Backend, error)

// NewRootCmd builds the command tree. open is called lazily by each command
// that needs the store.
func NewRootCmd(open Opener) *cobra.Command {
	v := viper.New()
	v.SetDefault("database", config.DefaultDatabase)
	v.SetDefault("timeout", 5*time.Minute)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database", "MONGO_DATABASE")

	root := &cobra.Command{
		Use:           "toolkitctl",
		Short:         "Operate the Tech Toolkit Hub catalog",
		Long:          "Bootstrap collections, bulk load seed files, and edit or move tools without going through the web API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("mongo-uri", "", "MongoDB connection string (env MONGO_URI)")
	root.PersistentFlags().String("database", config.DefaultDatabase, "database name (env MONGO_DATABASE)")
	root.PersistentFlags().String("redis-url", "", "catalog cache to invalidate after writes (env REDIS_URL)")
	root.PersistentFlags().Duration("timeout", 5*time.Minute, "overall command timeout")
	for _, name := range []string{"mongo-uri", "database", "redis-url", "timeout"} {
		_ = v.BindPFlag(name, root.PersistentFlags().Lookup(name))
	}

	run := func(fn func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration("timeout"))
			defer cancel()

			b, err := open(ctx, v)
			if err != nil {
				return err
			}
			if b.Close != nil {
				defer func() {
					if err := b.Close(context.Background()); err != nil {
						log.Error().Err(err).Msg("Error closing backend")
					}
				}()
			}
			return fn(ctx, cmd, b, args)
		}
	}

	root.AddCommand(
		newInitCmd(run),
		newMigrateCmd(run),
		newToolsCmd(run),
		newExportCmd(run),
		newImportCmd(run),
	)
	return root
}

type runner func(fn func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error) func(*cobra.Command, []string) error

// OpenMongo is the production Opener.
func OpenMongo(ctx context.Context, v *viper.Viper) (*Backend, error) {
	uri := v.GetString("mongo-uri")
	if uri == "" {
		return nil, fmt.Errorf("mongo URI not set, pass --mongo-uri or set MONGO_URI")
	}
	db, err := database.New(ctx, uri, v.GetString("database"))
	if err != nil {
		return nil, err
	}

	var catalogCache cache.CatalogCache = cache.NoopCatalogCache{}
	closeRedis := func() error { return nil }
	if url := v.GetString("redis-url"); url != "" {
		client, err := cache.Connect(ctx, url)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, server catalog cache will expire on its own")
		} else {
			catalogCache = cache.NewRedisCatalogCache(client, config.DefaultCatalogCacheTTL)
			closeRedis = client.Close
		}
	}

	toolRepo := repositories.NewToolRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)

	return &Backend{
		Tools: services.NewToolService(
			toolRepo,
			categoryRepo,
			repositories.NewRatingRepository(db),
			repositories.NewCommentRepository(db),
			repositories.NewBookmarkRepository(db),
			catalogCache,
		),
		Transfer: services.NewTransferService(toolRepo, categoryRepo, catalogCache, db),
		Close: func(ctx context.Context) error {
			if err := closeRedis(); err != nil {
				log.Error().Err(err).Msg("Error closing redis client")
			}
			return db.Close(ctx)
		},
	}, nil
}

// Execute runs toolkitctl against MongoDB and exits non-zero on failure.
func Execute() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := NewRootCmd(OpenMongo).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
