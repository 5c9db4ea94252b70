package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pypehq/pype/pkg/query"
)

const mysqlTableOptions = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"

// CompileCreate renders the statements that create bp's table.
func CompileCreate(d query.Driver, bp *Blueprint) []string {
	defs := make([]string, 0, len(bp.columns)+len(bp.raws))
	for _, c := range bp.columns {
		defs = append(defs, columnSQL(d, c))
	}
	defs = append(defs, bp.raws...)

	stmt := "CREATE TABLE IF NOT EXISTS " + d.Quote(bp.table) + " (" + strings.Join(defs, ", ") + ")"
	if d.Name() == "mysql" {
		stmt += mysqlTableOptions
	}
	return append([]string{stmt}, indexSQL(d, bp)...)
}

// CompileAlter renders one ADD COLUMN statement per column.
func CompileAlter(d query.Driver, bp *Blueprint) []string {
	prefix := "ALTER TABLE " + d.Quote(bp.table) + " ADD "
	stmts := make([]string, 0, len(bp.columns)+len(bp.raws))
	for _, c := range bp.columns {
		stmts = append(stmts, prefix+"COLUMN "+columnSQL(d, c))
	}
	for _, r := range bp.raws {
		stmts = append(stmts, prefix+r)
	}
	return append(stmts, indexSQL(d, bp)...)
}

// CompileDrop renders DROP TABLE IF EXISTS.
func CompileDrop(d query.Driver, table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table)
}

func indexSQL(d query.Driver, bp *Blueprint) []string {
	out := make([]string, 0, len(bp.indexes))
	for _, cols := range bp.indexes {
		name := bp.table + "_" + strings.Join(cols, "_") + "_index"
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = d.Quote(c)
		}
		ifNotExists := " IF NOT EXISTS"
		if d.Name() == "mysql" {
			ifNotExists = ""
		}
		out = append(out, "CREATE INDEX"+ifNotExists+" "+d.Quote(name)+" ON "+d.Quote(bp.table)+" ("+strings.Join(quoted, ", ")+")")
	}
	return out
}

func columnSQL(d query.Driver, c *Column) string {
	name := d.Quote(c.name)
	if c.kind == typeID {
		return name + " " + idType(d.Name())
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(columnTypeSQL(d, c))
	if !c.nullable {
		b.WriteString(" NOT NULL")
	}
	if c.hasDefault {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultSQL(d.Name(), c.def))
	}
	if c.unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

func idType(dialect string) string {
	switch dialect {
	case "pgsql":
		return "SERIAL PRIMARY KEY"
	case "sqlite":
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "INT UNSIGNED AUTO_INCREMENT PRIMARY KEY"
}

func columnTypeSQL(d query.Driver, c *Column) string {
	dialect := d.Name()
	switch c.kind {
	case typeString:
		return "VARCHAR(" + strconv.Itoa(c.length) + ")"
	case typeInteger:
		return "INTEGER"
	case typeBigInteger:
		return "BIGINT"
	case typeText:
		return "TEXT"
	case typeTimestamp:
		if dialect == "sqlite" {
			return "DATETIME"
		}
		return "TIMESTAMP"
	case typeBoolean:
		if dialect == "mysql" {
			return "TINYINT(1)"
		}
		return "BOOLEAN"
	case typeDouble:
		switch dialect {
		case "pgsql":
			return fmt.Sprintf("NUMERIC(%d, %d)", c.total, c.places)
		case "sqlite":
			return "REAL"
		}
		return fmt.Sprintf("DOUBLE(%d, %d)", c.total, c.places)
	case typeDate:
		return "DATE"
	case typeDateTime:
		if dialect == "pgsql" {
			return "TIMESTAMP"
		}
		return "DATETIME"
	case typeJSON:
		switch dialect {
		case "pgsql":
			return "JSONB"
		case "sqlite":
			return "TEXT"
		}
		return "JSON"
	case typeTime:
		return "TIME"
	case typeBinary:
		if dialect == "pgsql" {
			return "BYTEA"
		}
		return "BLOB"
	case typeEnum:
		values := make([]string, len(c.enum))
		for i, v := range c.enum {
			values[i] = quoteLiteral(v)
		}
		if dialect == "mysql" {
			return "ENUM(" + strings.Join(values, ", ") + ")"
		}
		return "VARCHAR(255) CHECK (" + d.Quote(c.name) + " IN (" + strings.Join(values, ", ") + "))"
	}
	return "TEXT"
}

func defaultSQL(dialect string, v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case Expr:
		return string(t)
	case bool:
		if dialect == "pgsql" {
			if t {
				return "TRUE"
			}
			return "FALSE"
		}
		if t {
			return "1"
		}
		return "0"
	case string:
		return quoteLiteral(t)
	case time.Time:
		return quoteLiteral(t.Format(time.DateTime))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(t)
	}
	return quoteLiteral(fmt.Sprint(v))
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
