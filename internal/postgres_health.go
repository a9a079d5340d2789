package internal

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/pagekit"
	"go.uber.org/zap"
)

// ValidatePostgresConfig performs basic sanity checks on Postgres-related settings.
func ValidatePostgresConfig(cfg pagekit.DatabaseConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("database.port must be a valid TCP port")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("database.maxConnections must be greater than 0")
	}
	if cfg.UseIAMAuth && cfg.Region == "" {
		return fmt.Errorf("database.region is required when useIAMAuth is enabled")
	}
	return nil
}

// PostgresDSN renders cfg as a postgres:// URL with the given password.
func PostgresDSN(cfg pagekit.DatabaseConfig, password string) string {
	var userInfo *url.Userinfo
	if password != "" {
		userInfo = url.UserPassword(cfg.Username, password)
	} else {
		userInfo = url.User(cfg.Username)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Database,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ResolvePostgresPassword returns the configured password, or a short-lived
// DSQL auth token when IAM authentication is enabled.
func ResolvePostgresPassword(ctx context.Context, cfg pagekit.DatabaseConfig, creds aws.CredentialsProvider) (string, error) {
	if !cfg.UseIAMAuth {
		return cfg.Password, nil
	}
	endpoint := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, cfg.Region, creds)
	if err != nil {
		return "", fmt.Errorf("generate dsql auth token: %w", err)
	}
	zap.S().Infow("generated IAM auth token for Postgres connection", "host", cfg.Host)
	return token, nil
}

// NewPostgresPool opens a pgx pool sized from cfg.
func NewPostgresPool(ctx context.Context, cfg pagekit.DatabaseConfig, password string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(PostgresDSN(cfg, password))
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(min(cfg.MaxIdleConns, cfg.MaxConnections))
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.Timeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// PostgresHealthCheck attempts to connect and ping a Postgres instance using a DSN.
// timeout may be 0 to use a sensible default (5s).
func PostgresHealthCheck(ctx context.Context, dsn string, timeout time.Duration) error {
	if dsn == "" {
		return fmt.Errorf("empty dsn")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("postgres simple query failed: %w", err)
	}

	return nil
}
