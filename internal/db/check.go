package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"time"

	"github.com/lib/pq"
)

// CheckResult is what a connectivity check learned about the database.
type CheckResult struct {
	Address    string
	ServerTime time.Time
	Version    string
}

// DialAddress extracts host:port from a postgres URL, defaulting the port to 5432.
func DialAddress(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return net.JoinHostPort(host, port), nil
}

// Check dials the server, then opens a lib/pq connection and asks for the time.
func Check(ctx context.Context, dsn string, timeout time.Duration) (CheckResult, error) {
	addr, err := DialAddress(dsn)
	if err != nil {
		return CheckResult{}, err
	}
	res := CheckResult{Address: addr}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return res, fmt.Errorf("tcp dial %s: %w", addr, err)
	}
	_ = conn.Close()

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return res, fmt.Errorf("open: %w", err)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return res, fmt.Errorf("ping: %w", err)
	}
	if err := sqlDB.QueryRowContext(ctx, "SELECT NOW(), version()").Scan(&res.ServerTime, &res.Version); err != nil {
		return res, fmt.Errorf("query: %w", err)
	}
	return res, nil
}

// Hint turns common connection failures into something a developer can act on.
func Hint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "28P01":
			return "authentication failed: check the user and password in DATABASE_URL"
		case "3D000":
			return "database does not exist: create it or fix the name in DATABASE_URL"
		case "28000":
			return "role is not allowed to connect: check pg_hba.conf"
		}
		return ""
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection refused: is postgres running and listening on this port?"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "host not found: check the host in DATABASE_URL"
	}
	return ""
}
