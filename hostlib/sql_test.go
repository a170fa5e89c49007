package hostlib

import (
	"strings"
	"testing"
)

func openMemoryDB(t *testing.T) {
	t.Helper()
	if err := RegisterDB(); err != nil {
		t.Fatalf("RegisterDB: %v", err)
	}
	mustRun(t, `var conn = db.open(":memory:")`)
	t.Cleanup(func() {
		mustRun(t, "conn.close()")
	})
}

func TestDBExecAndQuery(t *testing.T) {
	newTestScope(t)
	openMemoryDB(t)

	mustRun(t, `conn.exec("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age REAL)")`)

	result := mustRun(t, `conn.exec("INSERT INTO users (name, age) VALUES (?, ?)", "ada", 36)`)
	if n, _ := result.Index("rowsAffected").AsInt(); n != 1 {
		t.Errorf("rowsAffected = %d, want 1", n)
	}
	if n, _ := result.Index("lastInsertId").AsInt(); n != 1 {
		t.Errorf("lastInsertId = %d, want 1", n)
	}

	mustRun(t, `conn.exec("INSERT INTO users (name, age) VALUES (?, ?)", "bob", 41.5)`)

	rows := mustRun(t, `conn.query("SELECT name, age FROM users ORDER BY name")`)
	if !rows.IsArray() {
		t.Fatal("query should return an array")
	}
	if n, _ := rows.Index("length").AsInt(); n != 2 {
		t.Fatalf("row count = %d, want 2", n)
	}

	name, err := rows.Index(0).Index("name").AsString()
	if err != nil || name != "ada" {
		t.Errorf("name = %q %v, want ada", name, err)
	}
	age, err := rows.Index(1).Index("age").AsFloat64()
	if err != nil || age != 41.5 {
		t.Errorf("age = %v %v, want 41.5", age, err)
	}
}

func TestDBNullParameter(t *testing.T) {
	newTestScope(t)
	openMemoryDB(t)

	mustRun(t, `conn.exec("CREATE TABLE t (v TEXT)")`)
	mustRun(t, `conn.exec("INSERT INTO t (v) VALUES (?)", null)`)

	rows := mustRun(t, `conn.query("SELECT v FROM t")`)
	v, err := rows.Index(0).Index("v").Get()
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsNull() {
		t.Error("NULL cell should decode as null")
	}
}

func TestDBBadStatementThrows(t *testing.T) {
	newTestScope(t)
	openMemoryDB(t)

	msg := caught(t, `conn.exec("NOT REAL SQL")`)
	if msg == "no throw" {
		t.Fatal("bad SQL should throw")
	}
	if !strings.Contains(msg, "db: exec") {
		t.Errorf("message = %q, want db: exec prefix", msg)
	}
}

func TestDBClosedConnectionThrows(t *testing.T) {
	newTestScope(t)
	if err := RegisterDB(); err != nil {
		t.Fatalf("RegisterDB: %v", err)
	}

	mustRun(t, `var c2 = db.open(":memory:")`)
	mustRun(t, "c2.close()")
	// Double close is a quiet no-op
	if msg := caught(t, "c2.close()"); msg != "no throw" {
		t.Errorf("second close threw: %s", msg)
	}

	msg := caught(t, `c2.query("SELECT 1")`)
	if msg != "db: connection is closed" {
		t.Errorf("message = %q", msg)
	}
}

func TestDBOpenBadPathThrows(t *testing.T) {
	newTestScope(t)
	if err := RegisterDB(); err != nil {
		t.Fatalf("RegisterDB: %v", err)
	}

	msg := caught(t, `db.open("/nonexistent-dir/zzz/db.sqlite")`)
	if msg == "no throw" {
		t.Error("opening an unwritable path should throw")
	}
}
