// database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/gewnthar/trainboard/config"
)

// DSN builds the driver DSN from configuration. parseTime and UTC are always forced
// so DATETIME columns scan into time.Time.
func DSN(cfg config.DatabaseConfig) (string, error) {
	var mc *mysql.Config
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("failed to parse database DSN: %w", err)
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		port := cfg.Port
		if port == "" {
			port = "3306"
		}
		mc.Addr = net.JoinHostPort(cfg.Host, port)
		mc.DBName = cfg.DBName
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

// Open opens the connection pool and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Println("Database: successfully connected")
	return db, nil
}
