// Package sql is a natives module exposing database/sql to script
// code, backed by the real lib/pq, go-sql-driver/mysql and
// modernc.org/sqlite drivers. It replaces a compiled, statically-typed
// caller's ORM-style access with a thin dynamic dispatch surface suited
// to values coming from script code.
package sql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/asteria-lang/asteria/internal/function"
	"github.com/asteria-lang/asteria/internal/global"
	"github.com/asteria-lang/asteria/internal/value"
)

// Handle wraps an open *sql.DB as a callable Asteria value: scripts
// invoke it like a function, passing a verb ("query"/"exec"/"close") as
// the first argument, the "dispatch on verb" shape every natives/*
// handle in this module uses.
type Handle struct {
	driver string
	db     *sql.DB
}

func (h *Handle) Describe() string { return fmt.Sprintf("sql.DB<%s>", h.driver) }

// Handle captures no Asteria variables; it owns a Go resource instead.
func (h *Handle) EnumerateVariables(visit func(*value.Variable) bool) {}

func (h *Handle) Invoke(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	if len(args) == 0 {
		return value.Reference{}, fmt.Errorf("sql handle requires a verb argument")
	}
	verbVal, err := args[0].Read()
	if err != nil {
		return value.Reference{}, err
	}
	verb, ok := verbVal.AsString()
	if !ok {
		return value.Reference{}, fmt.Errorf("sql handle verb must be a string")
	}
	switch verb {
	case "query":
		return h.query(args[1:])
	case "exec":
		return h.exec(args[1:])
	case "close":
		return value.NewTemporary(value.FromBool(h.db.Close() == nil)), nil
	default:
		return value.Reference{}, fmt.Errorf("unknown sql verb %q", verb)
	}
}

func (h *Handle) query(args []value.Reference) (value.Reference, error) {
	query, params, err := statementArgs(args)
	if err != nil {
		return value.Reference{}, err
	}
	rows, err := h.db.QueryContext(context.Background(), query, params...)
	if err != nil {
		return value.Reference{}, fmt.Errorf("db_query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return value.Reference{}, err
	}
	var result []value.Value
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return value.Reference{}, err
		}
		obj, _ := value.NewObject().AsObject()
		for i, c := range cols {
			obj.Set(c, columnValue(raw[i]))
		}
		result = append(result, value.FromObject(obj))
	}
	return value.NewTemporary(value.NewArray(result...)), rows.Err()
}

func (h *Handle) exec(args []value.Reference) (value.Reference, error) {
	query, params, err := statementArgs(args)
	if err != nil {
		return value.Reference{}, err
	}
	res, err := h.db.ExecContext(context.Background(), query, params...)
	if err != nil {
		return value.Reference{}, fmt.Errorf("db_exec: %w", err)
	}
	affected, _ := res.RowsAffected()
	return value.NewTemporary(value.FromInt(affected)), nil
}

func statementArgs(args []value.Reference) (string, []interface{}, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("sql statement requires a query string")
	}
	qv, err := args[0].Read()
	if err != nil {
		return "", nil, err
	}
	query, ok := qv.AsString()
	if !ok {
		return "", nil, fmt.Errorf("sql statement query must be a string")
	}
	params := make([]interface{}, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := a.Read()
		if err != nil {
			return "", nil, err
		}
		params = append(params, scriptValueToGo(v))
	}
	return query, params, nil
}

func scriptValueToGo(v value.Value) interface{} {
	switch v.Kind() {
	case value.Integer:
		i, _ := v.AsInt()
		return i
	case value.Real:
		r, _ := v.AsReal()
		return r
	case value.String:
		s, _ := v.AsString()
		return s
	case value.Boolean:
		b, _ := v.AsBool()
		return b
	case value.Null:
		return nil
	default:
		return v.String()
	}
}

func columnValue(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null()
	case int64:
		return value.FromInt(v)
	case float64:
		return value.FromReal(v)
	case []byte:
		return value.FromString(string(v))
	case string:
		return value.FromString(v)
	case bool:
		return value.FromBool(v)
	default:
		return value.FromString(fmt.Sprintf("%v", v))
	}
}

// Register wires `db_open(driver, dsn)` into g's root scope. Every
// other verb (query/exec/close) is reached by calling the handle it
// returns, not through additional top-level natives.
func Register(g *global.Context) {
	g.Define("db_open", value.FromFunction(function.NewNative("db_open", openFunc)))
}

func openFunc(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	if len(args) < 2 {
		return value.Reference{}, fmt.Errorf("db_open(driver, dsn) requires 2 arguments")
	}
	driverVal, err := args[0].Read()
	if err != nil {
		return value.Reference{}, err
	}
	dsnVal, err := args[1].Read()
	if err != nil {
		return value.Reference{}, err
	}
	driver, _ := driverVal.AsString()
	dsn, _ := dsnVal.AsString()

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return value.Reference{}, fmt.Errorf("db_open: %w", err)
	}
	return value.NewTemporary(value.FromFunction(&Handle{driver: driver, db: db})), nil
}
