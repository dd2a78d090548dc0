package state

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"wg-engarde/pkg/logging"
)

// Journal is an append-only record of provisioning runs and console
// actions. Best effort: a broken journal never blocks the flow, it is
// diagnostics, not state.
type Journal struct {
	path string

	once sync.Once
	db   *sql.DB
}

func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

func (j *Journal) init() {
	j.once.Do(func() {
		if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
			logging.L().Debugf("journal mkdir failed: %v", err)
			return
		}
		dsn := "file:" + j.path + "?_pragma=busy_timeout=5000"
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			logging.L().Debugf("journal open failed: %v", err)
			return
		}
		db.SetMaxOpenConns(1)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS ops(role TEXT, op TEXT, detail TEXT, ts INTEGER)`); err != nil {
			logging.L().Debugf("journal schema failed: %v", err)
			_ = db.Close()
			return
		}
		j.db = db
	})
}

// Record appends one entry.
func (j *Journal) Record(role, op, detail string) {
	j.init()
	if j.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _ = j.db.ExecContext(ctx, `INSERT INTO ops(role, op, detail, ts) VALUES(?,?,?,?)`,
		role, op, detail, time.Now().Unix())
}

// Close releases the database handle.
func (j *Journal) Close() {
	if j.db != nil {
		_ = j.db.Close()
	}
}
