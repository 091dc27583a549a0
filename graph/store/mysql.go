package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/Aurora implementation of Store[R] for deployments
// where several processes share one result database.
//
// Example DSN: "user:password@tcp(localhost:3306)/pipelines".
type MySQLStore[R any] struct {
	*sqlStore[R]
}

var mysqlDialect = sqlDialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS pipeline_steps (
			run_id     VARCHAR(255) NOT NULL,
			step       INT          NOT NULL,
			node_id    VARCHAR(255) NOT NULL,
			result     LONGTEXT     NOT NULL,
			created_at BIGINT       NOT NULL,
			PRIMARY KEY (run_id, step),
			INDEX idx_pipeline_steps_node (run_id, node_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			run_id       VARCHAR(255) NOT NULL PRIMARY KEY,
			status       VARCHAR(32)  NOT NULL,
			node_count   INT          NOT NULL,
			failed_count INT          NOT NULL,
			started_at   BIGINT       NOT NULL,
			finished_at  BIGINT       NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	upsertStep: `
		INSERT INTO pipeline_steps (run_id, step, node_id, result, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			node_id = VALUES(node_id),
			result = VALUES(result),
			created_at = VALUES(created_at)`,
	upsertRun: `
		INSERT INTO pipeline_runs (run_id, status, node_count, failed_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			node_count = VALUES(node_count),
			failed_count = VALUES(failed_count),
			started_at = VALUES(started_at),
			finished_at = VALUES(finished_at)`,
}

// NewMySQLStore connects to MySQL, verifies the connection and creates the
// tables if needed.
func NewMySQLStore[R any](dsn string) (*MySQLStore[R], error) {
	db, err := OpenMySQL(dsn)
	if err != nil {
		return nil, err
	}
	core, err := newSQLStore[R](context.Background(), db, mysqlDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &MySQLStore[R]{sqlStore: core}, nil
}

// OpenMySQL opens a pooled MySQL connection and pings it.
func OpenMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}
	return db, nil
}

// Stats returns connection pool statistics.
func (m *MySQLStore[R]) Stats() sql.DBStats {
	return m.db.Stats()
}
