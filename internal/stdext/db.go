package stdext

import (
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"gloom/internal/object"
	"gloom/internal/types"
)

// driverName maps the script-facing driver string onto the
// database/sql driver name the blank imports above registered, the
// same dispatch a DatabaseModule.Connect does over dbType before
// building a DSN.
func driverName(driver string) (string, error) {
	switch driver {
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlserver", "mssql":
		return "sqlserver", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("db_open: unsupported driver %q", driver)
	}
}

// biDBOpen is db_open(driver, dsn) -> Any: opens (and pings) a
// database/sql handle, wrapped as an object.HostHandle so the
// connection's Close rides the refcounting drop hook instead of needing
// an explicit db_close builtin.
func biDBOpen(args []object.Value) (object.Value, error) {
	driver := args[0].Obj.(*object.StringObj).Value
	dsn := args[1].Obj.(*object.StringObj).Value

	name, err := driverName(driver)
	if err != nil {
		return object.Value{}, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return object.Value{}, fmt.Errorf("db_open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return object.Value{}, fmt.Errorf("db_open: %w", err)
	}
	return object.VRef(object.NewHostHandle("db", db, db.Close)), nil
}

// biDBQuery is db_query(handle, query) -> Array<Any>: each result row
// becomes a TupleObj of column values, collected into an ArrayObj —
// this language has no map/dict type, so a tuple-of-columns is the
// closest structural stand-in for a row-as-map result.
func biDBQuery(args []object.Value) (object.Value, error) {
	handle, ok := args[0].Obj.(*object.HostHandle)
	if !ok || handle.Kind != "db" {
		return object.Value{}, fmt.Errorf("db_query: first argument is not a database handle")
	}
	db := handle.Value.(*sql.DB)
	query := args[1].Obj.(*object.StringObj).Value

	rows, err := db.Query(query)
	if err != nil {
		return object.Value{}, fmt.Errorf("db_query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return object.Value{}, fmt.Errorf("db_query: %w", err)
	}

	var out []object.Value
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return object.Value{}, fmt.Errorf("db_query: %w", err)
		}
		values := make([]object.Value, len(cols))
		for i, v := range raw {
			values[i] = sqlValueToGloom(v)
		}
		out = append(out, object.VRef(object.NewTuple(values)))
	}
	if err := rows.Err(); err != nil {
		return object.Value{}, fmt.Errorf("db_query: %w", err)
	}
	return object.VRef(object.NewArray(types.Any, out)), nil
}

func sqlValueToGloom(v interface{}) object.Value {
	switch x := v.(type) {
	case nil:
		return object.VNil()
	case []byte:
		return object.VRef(object.NewString(string(x)))
	case string:
		return object.VRef(object.NewString(x))
	case int64:
		return object.VInt(x)
	case float64:
		return object.VNum(x)
	case bool:
		return object.VBool(x)
	default:
		return object.VRef(object.NewString(fmt.Sprintf("%v", x)))
	}
}
