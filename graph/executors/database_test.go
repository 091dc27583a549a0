package executors

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dshills/pipeline-go/graph"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (id, name) VALUES (1, 'ada'), (2, 'bo')`)
	require.NoError(t, err)
	return db
}

func TestDatabaseExecutor_Mock(t *testing.T) {
	got, err := NewDatabaseExecutor(nil).Execute(context.Background(),
		map[string]any{"operation": "insert", "query": "INSERT INTO t VALUES (1)"}, nil)
	require.NoError(t, err)

	assert.Equal(t, graph.Outputs{"result": map[string]any{
		"operation":    "INSERT",
		"query":        "INSERT INTO t VALUES (1)",
		"rows":         []map[string]any{},
		"affectedRows": int64(0),
	}}, got)

	got, err = NewDatabaseExecutor(nil).Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT", got["result"].(map[string]any)["operation"])
}

func TestDatabaseExecutor_Select(t *testing.T) {
	exec := NewDatabaseExecutor(newTestDB(t))

	tests := []struct {
		name   string
		query  string
		params any
		want   []map[string]any
	}{
		{
			name:  "all rows",
			query: "SELECT id, name FROM users ORDER BY id",
			want: []map[string]any{
				{"id": int64(1), "name": "ada"},
				{"id": int64(2), "name": "bo"},
			},
		},
		{
			name:   "positional params",
			query:  "SELECT name FROM users WHERE id = ?",
			params: []any{2.0},
			want:   []map[string]any{{"name": "bo"}},
		},
		{
			name:   "scalar param",
			query:  "SELECT name FROM users WHERE name = ?",
			params: "ada",
			want:   []map[string]any{{"name": "ada"}},
		},
		{
			name:   "args from map",
			query:  "SELECT id FROM users WHERE id > ?",
			params: map[string]any{"args": []any{1}},
			want:   []map[string]any{{"id": int64(2)}},
		},
		{
			name:  "no matches",
			query: "SELECT id FROM users WHERE id > 99",
			want:  []map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := exec.Execute(context.Background(),
				map[string]any{"query": tt.query},
				graph.Inputs{"params": tt.params})
			require.NoError(t, err)

			result := got["result"].(map[string]any)
			assert.Equal(t, "SELECT", result["operation"])
			assert.Equal(t, tt.want, result["rows"])
		})
	}
}

func TestDatabaseExecutor_Exec(t *testing.T) {
	db := newTestDB(t)
	exec := NewDatabaseExecutor(db)

	got, err := exec.Execute(context.Background(),
		map[string]any{"operation": "UPDATE", "query": "UPDATE users SET name = ? WHERE id >= ?"},
		graph.Inputs{"params": []any{"x", 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got["result"].(map[string]any)["affectedRows"])

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users WHERE name = 'x'`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestDatabaseExecutor_Errors(t *testing.T) {
	exec := NewDatabaseExecutor(newTestDB(t))

	_, err := exec.Execute(context.Background(), map[string]any{"query": "  "}, nil)
	assert.EqualError(t, err, "query is required")

	_, err = exec.Execute(context.Background(), map[string]any{"query": "SELECT nope FROM missing"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")

	_, err = exec.Execute(context.Background(), map[string]any{"operation": "delete", "query": "DELETE FROM missing"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete failed")
}

func TestQueryArgs(t *testing.T) {
	assert.Nil(t, queryArgs(nil))
	assert.Equal(t, []any{"a"}, queryArgs("a"))
	assert.Equal(t, []any{1, 2}, queryArgs([]int{1, 2}))
	assert.Equal(t, []any{"x"}, queryArgs(map[string]any{"args": []string{"x"}}))
	assert.Nil(t, queryArgs(map[string]any{"other": 1}))
	assert.Equal(t, []any{[]byte("raw")}, queryArgs([]byte("raw")))
}
