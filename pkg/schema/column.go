package schema

// Expr is a default value rendered verbatim, e.g. CURRENT_TIMESTAMP.
type Expr string

const CurrentTimestamp Expr = "CURRENT_TIMESTAMP"

type columnType int

const (
	typeID columnType = iota
	typeString
	typeInteger
	typeBigInteger
	typeText
	typeTimestamp
	typeBoolean
	typeDouble
	typeDate
	typeDateTime
	typeJSON
	typeTime
	typeBinary
	typeEnum
)

// Column is one column definition. Columns are NOT NULL unless Nullable is called.
type Column struct {
	def        any
	name       string
	enum       []string
	kind       columnType
	length     int
	total      int
	places     int
	nullable   bool
	hasDefault bool
	unique     bool
}

// Nullable allows NULL values.
func (c *Column) Nullable() *Column {
	c.nullable = true
	return c
}

// Default sets the column default. Use an Expr for SQL expressions.
func (c *Column) Default(v any) *Column {
	c.def = v
	c.hasDefault = true
	return c
}

// Unique adds a UNIQUE constraint.
func (c *Column) Unique() *Column {
	c.unique = true
	return c
}

func (c *Column) Name() string {
	return c.name
}
