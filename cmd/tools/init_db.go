package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/internal"
)

type initDBOptions struct {
	host          string
	port          int
	database      string
	user          string
	password      string
	sslMode       string
	projectsTable string
	designsTable  string
	project       string
}

func runInitDB(args []string) error {
	flags := flag.NewFlagSet("init-db", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: pagekit-tools init-db [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	opts := initDBOptions{}
	flags.StringVar(&opts.host, "db-host", getenvDefault("DB_HOST", "localhost"), "database host")
	flags.IntVar(&opts.port, "db-port", getenvDefaultInt("DB_PORT", 5432), "database port")
	flags.StringVar(&opts.database, "db-name", getenvDefault("DB_NAME", "pagekit"), "database name")
	flags.StringVar(&opts.user, "db-user", getenvDefault("DB_USER", "postgres"), "database user")
	flags.StringVar(&opts.password, "db-password", getenvDefault("DB_PASSWORD", "postgres"), "database password")
	flags.StringVar(&opts.sslMode, "db-ssl-mode", getenvDefault("DB_SSL_MODE", "disable"), "database sslmode")
	flags.StringVar(&opts.projectsTable, "projects-table", getenvDefault("PROJECTS_TABLE", "projects"), "projects table name")
	flags.StringVar(&opts.designsTable, "designs-table", getenvDefault("DESIGNS_TABLE", "component_designs"), "component designs table name")
	flags.StringVar(&opts.project, "project", "", "project name to create if missing (optional)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	return initDatabase(opts)
}

func (o initDBOptions) databaseConfig() pagekit.DatabaseConfig {
	return pagekit.DatabaseConfig{
		Host:     o.host,
		Port:     o.port,
		Database: o.database,
		Username: o.user,
		Password: o.password,
		SSLMode:  o.sslMode,
		TableNames: pagekit.TableNames{
			Projects: o.projectsTable,
			Designs:  o.designsTable,
		},
	}
}

func initDatabase(opts initDBOptions) error {
	ctx := context.Background()
	cfg := opts.databaseConfig()

	dsn := internal.PostgresDSN(cfg, cfg.Password)
	if err := internal.PostgresHealthCheck(ctx, dsn, 0); err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := withTx(ctx, conn, func(tx pgx.Tx) error {
		if err := internal.EnsureDesignTables(ctx, tx, cfg.TableNames); err != nil {
			return err
		}
		fmt.Printf("Ensured tables: %s, %s\n", cfg.TableNames.Projects, cfg.TableNames.Designs)

		if opts.project == "" {
			return nil
		}
		id, created, err := ensureProject(ctx, tx, cfg.TableNames.Projects, opts.project)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created project, name: %s, id: %s\n", opts.project, id)
		} else {
			fmt.Printf("Project already exists, name: %s, id: %s\n", opts.project, id)
		}
		return nil
	}); err != nil {
		return err
	}

	fmt.Println("Database initialized successfully.")
	return nil
}

// ensureProject returns the id of the named project, creating the row when it
// does not exist yet.
func ensureProject(ctx context.Context, tx pgx.Tx, table, name string) (uuid.UUID, bool, error) {
	id, err := internal.LookupProject(ctx, tx, table, name)
	if err == nil {
		return id, false, nil
	}
	if !pagekit.IsNotFound(err) {
		return uuid.Nil, false, err
	}
	id, err = internal.CreateProject(ctx, tx, table, name, time.Now())
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func withTx(ctx context.Context, conn *pgxpool.Conn, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
