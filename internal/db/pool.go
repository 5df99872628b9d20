package db

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NewDBPoolParams struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string

	// zero keeps the pgxpool default
	MaxConns       int32
	TracingEnabled bool
}

// ConnString builds the postgres URL for params, escaping the credentials.
// An empty password leaves it out so trust and .pgpass auth keep working.
func ConnString(params NewDBPoolParams) string {
	user := params.User
	if user == "" {
		user = "postgres"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(params.Host, params.Port),
		Path:   "/" + params.Name,
	}
	if params.Password == "" {
		u.User = url.User(user)
	} else {
		u.User = url.UserPassword(user, params.Password)
	}
	return u.String()
}

func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(params))
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if params.MaxConns > 0 {
		poolConfig.MaxConns = params.MaxConns
	}
	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool for %s@%s/%s: %w", poolConfig.ConnConfig.User, poolConfig.ConnConfig.Host, params.Name, err)
	}

	return db, nil
}
