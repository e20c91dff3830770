package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"travelly_stays/internal/shared"
	mysqlrepo "travelly_stays/internal/storage/mysql"
)

// openJournal connects to the commit journal; the caller closes db.
func openJournal(ctx context.Context, cfg shared.Config) (*mysqlrepo.Journal, *sql.DB, error) {
	if cfg.MySQLDSN == "" {
		return nil, nil, errors.New("MYSQL_DSN is required for this command")
	}
	dsn, err := shared.JournalDSN(cfg.MySQLDSN)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	return mysqlrepo.New(db), db, nil
}
