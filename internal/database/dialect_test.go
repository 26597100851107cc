package database

import "testing"

func TestDialectSQLite(t *testing.T) {
	d := NewSQLiteDialect()

	if d.DriverName() != "sqlite3" {
		t.Errorf("DriverName() = %v, want sqlite3", d.DriverName())
	}
	if d.DSN(DialectConfig{Path: "/tmp/test.db"}) != "/tmp/test.db" {
		t.Errorf("DSN() = %v, want /tmp/test.db", d.DSN(DialectConfig{Path: "/tmp/test.db"}))
	}
	if d.MigrationsSubdir() != "sqlite" {
		t.Errorf("MigrationsSubdir() = %v, want sqlite", d.MigrationsSubdir())
	}
	if d.LockingClause() != "" {
		t.Errorf("LockingClause() = %q, want empty", d.LockingClause())
	}
}

func TestDialectPostgreSQL(t *testing.T) {
	d := NewPostgresDialect()

	if d.DriverName() != "postgres" {
		t.Errorf("DriverName() = %v, want postgres", d.DriverName())
	}
	if d.MigrationsSubdir() != "postgres" {
		t.Errorf("MigrationsSubdir() = %v, want postgres", d.MigrationsSubdir())
	}
	if d.LockingClause() != " FOR UPDATE" {
		t.Errorf("LockingClause() = %q, want \" FOR UPDATE\"", d.LockingClause())
	}
}

func TestDialectMySQL(t *testing.T) {
	d := NewMySQLDialect()

	if d.DriverName() != "mysql" {
		t.Errorf("DriverName() = %v, want mysql", d.DriverName())
	}
	if d.MigrationsSubdir() != "mysql" {
		t.Errorf("MigrationsSubdir() = %v, want mysql", d.MigrationsSubdir())
	}
	if got := d.RewriteQuery("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = ? AND b = ?" {
		t.Errorf("RewriteQuery() = %v, want unchanged", got)
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "no placeholders",
			query:    "SELECT 1",
			expected: "SELECT 1",
		},
		{
			name:     "single placeholder",
			query:    "SELECT * FROM cycles WHERE cycle_id = ?",
			expected: "SELECT * FROM cycles WHERE cycle_id = $1",
		},
		{
			name:     "multiple placeholders",
			query:    "UPDATE cycles SET status = ?, updated_at = ? WHERE id = ?",
			expected: "UPDATE cycles SET status = $1, updated_at = $2 WHERE id = $3",
		},
	}

	d := NewPostgresDialect()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.RewriteQuery(tt.query); got != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", got, tt.expected)
			}
		})
	}
}
