package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/mathquest/db"
	"github.com/gokatarajesh/mathquest/internal/config"
	"github.com/gokatarajesh/mathquest/internal/leaderboard"
)

var rootCmd = &cobra.Command{
	Use:           "migrator",
	Short:         "Manage the mathquest database schema and seed data",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			log.Debug().Err(err).Msg("no .env file loaded")
		}
	}

	rootCmd.AddCommand(
		gooseCmd("up", "Apply all pending migrations", goose.Up),
		gooseCmd("down", "Roll back the latest migration", goose.Down),
		gooseCmd("status", "Print migration status", goose.Status),
		scriptCmd("seed", "Insert development users and lessons", db.SeedFile),
		resetCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("migrator failed")
	}
}

func gooseCmd(use, short string, run func(*sql.DB, string, ...goose.OptionsFunc) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			goose.SetBaseFS(db.Migrations)
			goose.SetTableName("goose_db_version")
			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("set goose dialect: %w", err)
			}

			if err := run(conn, db.MigrationsDir); err != nil {
				return fmt.Errorf("goose %s: %w", use, err)
			}
			log.Info().Str("command", use).Msg("migration command finished")
			return nil
		},
	}
}

func scriptCmd(use, short, file string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), file)
		},
	}
}

// resetCmd zeroes learner activity in Postgres and drops the Redis
// leaderboards.
func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear attempts, submissions, progress and leaderboards and zero user stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runScript(cmd.Context(), db.ResetFile); err != nil {
				return err
			}

			cfg, err := config.LoadRedis()
			if err != nil {
				return err
			}
			client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
			defer client.Close()

			removed, err := leaderboard.NewService(client, log.Logger, leaderboard.ServiceOptions{}).Reset(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("keys", removed).Msg("leaderboards cleared")
			return nil
		},
	}
}

func runScript(ctx context.Context, file string) error {
	script, err := db.Seeds.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	conn, err := open(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("run %s: %w", file, err)
	}
	log.Info().Str("script", file).Msg("script applied")
	return nil
}

// open connects through the pgx database/sql driver, which goose requires.
func open(ctx context.Context) (*sql.DB, error) {
	cfg, err := config.LoadPostgres()
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")
	return conn, nil
}
