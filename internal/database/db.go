package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.  lockWaitSec caps how
// long a transaction blocks on another transaction's row lock before the
// driver returns an error; the booking and confirmation paths depend on
// this bound instead of waiting indefinitely on a stuck peer.
func Open(user, pass, host, port, name string, lockWaitSec int) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	if lockWaitSec <= 0 {
		lockWaitSec = 10
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	// innodb_lock_wait_timeout is set per session through the DSN
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&innodb_lock_wait_timeout=%d",
		auth, host, port, name, lockWaitSec)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
