// Package database opens the MySQL handle every repository shares.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection before returning
// the handle. parseTime=true makes DATETIME columns scan into
// time.Time and loc=UTC keeps ticket timestamps comparable across
// instances. maxConns caps both open and idle connections; a purchase
// holds a connection only for its short version-checked write, so the
// pool never needs to scale with seat count.
func Open(user, pass, host, port, name string, maxConns int) (*sql.DB, error) {
	if maxConns <= 0 {
		maxConns = 25
	}
	creds := user
	if pass != "" {
		creds += ":" + pass
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		creds, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
