package executors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/pipeline-go/graph"
)

// DatabaseExecutor runs its "query" config against a SQL backend.
//
// Without a backend it returns a mock result so pipelines can be exercised
// offline:
//
//	{result: {operation, query, rows: [], affectedRows: 0}}
//
// With one, SELECT fills rows (one map per row, keyed by column) and other
// operations report affectedRows. The bound "params" input supplies query
// arguments: a sequence is positional, a map contributes its "args"
// sequence, any other value is a single argument.
type DatabaseExecutor struct {
	db Querier
}

// NewDatabaseExecutor creates a DatabaseExecutor. db may be nil.
func NewDatabaseExecutor(db Querier) *DatabaseExecutor {
	return &DatabaseExecutor{db: db}
}

// Execute implements graph.Executor.
func (e *DatabaseExecutor) Execute(ctx context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
	operation := strings.ToUpper(configString(cfg, "operation", "SELECT"))
	query := configString(cfg, "query", "")

	result := map[string]any{
		"operation":    operation,
		"query":        query,
		"rows":         []map[string]any{},
		"affectedRows": int64(0),
	}
	if e.db == nil {
		return graph.Outputs{"result": result}, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}

	args := queryArgs(in["params"])
	if operation == "SELECT" {
		rows, err := e.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		records, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		result["rows"] = records
		return graph.Outputs{"result": result}, nil
	}

	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", strings.ToLower(operation), err)
	}
	if n, err := res.RowsAffected(); err == nil {
		result["affectedRows"] = n
	}
	return graph.Outputs{"result": result}, nil
}

func queryArgs(params any) []any {
	if params == nil {
		return nil
	}
	if s, ok := asSlice(params); ok {
		return s
	}
	if m, ok := params.(map[string]any); ok {
		if s, ok := asSlice(m["args"]); ok {
			return s
		}
		return nil
	}
	return []any{params}
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	records := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}
