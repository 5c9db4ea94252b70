package schema

// Blueprint collects the columns of a CREATE or ALTER TABLE.
type Blueprint struct {
	table   string
	columns []*Column
	raws    []string
	indexes [][]string
}

// NewBlueprint collects the columns fn declares for table.
func NewBlueprint(table string, fn func(t *Blueprint)) *Blueprint {
	bp := &Blueprint{table: table}
	if fn != nil {
		fn(bp)
	}
	return bp
}

func (b *Blueprint) add(name string, kind columnType) *Column {
	c := &Column{name: name, kind: kind}
	b.columns = append(b.columns, c)
	return c
}

// ID adds an auto-incrementing integer primary key named "id".
func (b *Blueprint) ID() *Column {
	return b.add("id", typeID)
}

// String adds a VARCHAR column. A zero length means 255.
func (b *Blueprint) String(name string, length int) *Column {
	c := b.add(name, typeString)
	c.length = length
	if c.length <= 0 {
		c.length = 255
	}
	return c
}

func (b *Blueprint) Integer(name string) *Column {
	return b.add(name, typeInteger)
}

func (b *Blueprint) BigInteger(name string) *Column {
	return b.add(name, typeBigInteger)
}

func (b *Blueprint) Text(name string) *Column {
	return b.add(name, typeText)
}

// Timestamp adds a TIMESTAMP column defaulting to CURRENT_TIMESTAMP.
func (b *Blueprint) Timestamp(name string) *Column {
	return b.add(name, typeTimestamp).Default(CurrentTimestamp)
}

func (b *Blueprint) Boolean(name string) *Column {
	return b.add(name, typeBoolean)
}

// Double adds a fixed precision column. Zero values mean (8, 2).
func (b *Blueprint) Double(name string, total, places int) *Column {
	c := b.add(name, typeDouble)
	c.total, c.places = total, places
	if c.total <= 0 {
		c.total = 8
	}
	if c.places <= 0 {
		c.places = 2
	}
	return c
}

func (b *Blueprint) Date(name string) *Column {
	return b.add(name, typeDate)
}

func (b *Blueprint) DateTime(name string) *Column {
	return b.add(name, typeDateTime)
}

func (b *Blueprint) JSON(name string) *Column {
	return b.add(name, typeJSON)
}

func (b *Blueprint) Time(name string) *Column {
	return b.add(name, typeTime)
}

func (b *Blueprint) Binary(name string) *Column {
	return b.add(name, typeBinary)
}

// Enum adds a column restricted to values.
func (b *Blueprint) Enum(name string, values ...string) *Column {
	c := b.add(name, typeEnum)
	c.enum = values
	return c
}

// Timestamps adds nullable created_at and updated_at columns.
func (b *Blueprint) Timestamps() {
	b.Timestamp("created_at").Nullable()
	b.Timestamp("updated_at").Nullable()
}

// SoftDeletes adds a nullable deleted_at column with no default.
func (b *Blueprint) SoftDeletes() *Column {
	c := b.add("deleted_at", typeTimestamp).Nullable()
	return c
}

// Raw appends a verbatim column or constraint definition.
func (b *Blueprint) Raw(definition string) {
	b.raws = append(b.raws, definition)
}

// Index creates a plain index over cols after the table statement.
func (b *Blueprint) Index(cols ...string) {
	if len(cols) > 0 {
		b.indexes = append(b.indexes, cols)
	}
}
