package hostlib

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chazu/jsbridge/js"
)

// ---------------------------------------------------------------------------
// Connection registry
// ---------------------------------------------------------------------------

var sqlConns = struct {
	sync.RWMutex
	conns map[string]*sql.DB
}{
	conns: make(map[string]*sql.DB),
}

func registerSQLConn(db *sql.DB) string {
	id := uuid.NewString()
	sqlConns.Lock()
	sqlConns.conns[id] = db
	sqlConns.Unlock()
	return id
}

func lookupSQLConn(id string) *sql.DB {
	sqlConns.RLock()
	defer sqlConns.RUnlock()
	return sqlConns.conns[id]
}

func unregisterSQLConn(id string) {
	sqlConns.Lock()
	delete(sqlConns.conns, id)
	sqlConns.Unlock()
}

// ---------------------------------------------------------------------------
// Module registration
// ---------------------------------------------------------------------------

// RegisterDB installs a db object on the global object with an open method.
// open(path) returns a connection object exposing query, exec and close.
// The path ":memory:" opens an in-memory database.
func RegisterDB() error {
	global, err := js.Global()
	if err != nil {
		return err
	}

	mod, err := js.BuildObject().
		Method("open", 1, dbOpen).
		Value()
	if err != nil {
		return err
	}

	_, err = global.Field("db", mod)
	return err
}

func dbOpen(args []js.Value) (any, error) {
	if len(args) < 1 || !args[0].IsString() {
		return nil, js.NewCallbackError("db.open: path must be a string")
	}
	path, err := args[0].AsString()
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, js.NewCallbackError(fmt.Sprintf("db.open: %v", err))
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, js.NewCallbackError(fmt.Sprintf("db.open: %v", err))
	}

	id := registerSQLConn(conn)
	return buildConnObject(id, path)
}

func buildConnObject(id, path string) (js.Value, error) {
	return js.BuildObject().
		Field("id", id).
		Property("path", func() (any, error) {
			return path, nil
		}).
		Method("query", 8, func(args []js.Value) (any, error) {
			return connQuery(id, args)
		}).
		Method("exec", 8, func(args []js.Value) (any, error) {
			return connExec(id, args)
		}).
		Method("close", 0, func(args []js.Value) (any, error) {
			conn := lookupSQLConn(id)
			if conn == nil {
				return nil, nil
			}
			unregisterSQLConn(id)
			return nil, conn.Close()
		}).
		Value()
}

func liveConn(id string) (*sql.DB, error) {
	conn := lookupSQLConn(id)
	if conn == nil {
		return nil, js.NewCallbackError("db: connection is closed")
	}
	return conn, nil
}

// statementArgs converts trailing script arguments to driver parameters.
func statementArgs(args []js.Value) (string, []any, error) {
	if len(args) < 1 || !args[0].IsString() {
		return "", nil, js.NewCallbackError("db: statement must be a string")
	}
	stmt, err := args[0].AsString()
	if err != nil {
		return "", nil, err
	}

	var params []any
	for _, a := range args[1:] {
		if a.IsEmpty() || a.IsUndefined() {
			break
		}
		p, err := bindParam(a)
		if err != nil {
			return "", nil, err
		}
		params = append(params, p)
	}
	return stmt, params, nil
}

func bindParam(v js.Value) (any, error) {
	switch {
	case v.IsNull():
		return nil, nil
	case v.IsNumber():
		return v.AsFloat64()
	case v.IsBoolean():
		return v.AsBool()
	case v.IsString():
		return v.AsString()
	default:
		return nil, js.NewCallbackError("db: unsupported parameter type")
	}
}

func connQuery(id string, args []js.Value) (js.Value, error) {
	conn, err := liveConn(id)
	if err != nil {
		return js.Value{}, err
	}
	stmt, params, err := statementArgs(args)
	if err != nil {
		return js.Value{}, err
	}

	rows, err := conn.Query(stmt, params...)
	if err != nil {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("db: query: %v", err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("db: query: %v", err))
	}

	result, err := js.Array(0)
	if err != nil {
		return js.Value{}, err
	}

	idx := 0
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return js.Value{}, js.NewCallbackError(fmt.Sprintf("db: scan: %v", err))
		}

		row, err := js.NewObject()
		if err != nil {
			return js.Value{}, err
		}
		for i, col := range cols {
			if err := row.Index(col).Set(cellValue(cells[i])); err != nil {
				return js.Value{}, err
			}
		}
		if err := result.Index(idx).Set(row); err != nil {
			return js.Value{}, err
		}
		idx++
	}
	if err := rows.Err(); err != nil {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("db: query: %v", err))
	}

	return result, nil
}

// cellValue maps driver-level cell types to convertible host values.
func cellValue(cell any) any {
	switch c := cell.(type) {
	case []byte:
		return string(c)
	case nil:
		return nil
	default:
		return c
	}
}

func connExec(id string, args []js.Value) (js.Value, error) {
	conn, err := liveConn(id)
	if err != nil {
		return js.Value{}, err
	}
	stmt, params, err := statementArgs(args)
	if err != nil {
		return js.Value{}, err
	}

	res, err := conn.Exec(stmt, params...)
	if err != nil {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("db: exec: %v", err))
	}

	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()

	return js.BuildObject().
		Field("rowsAffected", affected).
		Field("lastInsertId", lastID).
		Value()
}
