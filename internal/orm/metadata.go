package orm

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ColumnMetadata describes one mapped struct field
type ColumnMetadata struct {
	FieldName     string
	DBName        string
	SQLType       string
	IsPrimaryKey  bool
	NotNull       bool
	Default       string
	HasDefault    bool
	AutoIncrement bool
	ForeignKey    string // "table.column"
	OnDelete      string

	index []int
}

// ModelMetadata describes the table a struct maps to
type ModelMetadata struct {
	TableName   string
	PrimaryKeys []string
	Columns     map[string]*ColumnMetadata // keyed by FieldName

	// Fields holds Columns in struct declaration order. Filled by NewRepository when empty.
	Fields []*ColumnMetadata
}

// QuotedTableName returns the table name quoted for use in SQL
func (m *ModelMetadata) QuotedTableName() string {
	return QuoteIdentifier(m.TableName)
}

// ColumnNames returns the database column names in declaration order
func (m *ModelMetadata) ColumnNames() []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		names = append(names, f.DBName)
	}
	return names
}

// ColumnByDBName finds a column by its database name
func (m *ModelMetadata) ColumnByDBName(name string) *ColumnMetadata {
	for _, f := range m.Fields {
		if f.DBName == name {
			return f
		}
	}
	return nil
}

// bind resolves field indexes against t and orders Fields by declaration.
func (m *ModelMetadata) bind(t reflect.Type) error {
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s is not a struct", ErrInvalidStruct, t)
	}
	if m.TableName == "" {
		return fmt.Errorf("%w: %s has no table name", ErrInvalidStruct, t)
	}
	if len(m.PrimaryKeys) == 0 {
		return fmt.Errorf("%w: table %s", ErrNoPrimaryKey, m.TableName)
	}

	ordered := make([]*ColumnMetadata, 0, len(m.Columns))
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		col, ok := m.Columns[field.Name]
		if !ok {
			continue
		}
		col.index = field.Index
		ordered = append(ordered, col)
	}
	if len(ordered) != len(m.Columns) {
		return fmt.Errorf("%w: %s is missing fields declared in metadata for %s", ErrInvalidStruct, t, m.TableName)
	}
	m.Fields = ordered

	for _, pk := range m.PrimaryKeys {
		col := m.ColumnByDBName(pk)
		if col == nil {
			return fmt.Errorf("%w: primary key %s not mapped on %s", ErrNoPrimaryKey, pk, m.TableName)
		}
		col.IsPrimaryKey = true
	}
	return nil
}

var metadataCache sync.Map // reflect.Type -> *ModelMetadata

// MetadataFor derives ModelMetadata for T from its db and dbdef tags.
//
// The table name comes from a blank field: _ struct{} `dbdef:"table:task"`.
// Fields tagged db:"-" or without a db tag are not mapped.
func MetadataFor[T any]() (*ModelMetadata, error) {
	var zero T
	return BuildMetadata(reflect.TypeOf(zero))
}

// BuildMetadata is the reflect.Type form of MetadataFor
func BuildMetadata(t reflect.Type) (*ModelMetadata, error) {
	if t == nil {
		return nil, ErrInvalidStruct
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := metadataCache.Load(t); ok {
		return cached.(*ModelMetadata), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidStruct, t)
	}

	meta := &ModelMetadata{Columns: make(map[string]*ColumnMetadata)}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Name == "_" {
			attrs := ParseDBDefTag(field.Tag.Get("dbdef"))
			meta.TableName = attrs["table"]
			continue
		}

		dbName := field.Tag.Get("db")
		if dbName == "" || dbName == "-" || !field.IsExported() {
			continue
		}

		col := &ColumnMetadata{FieldName: field.Name, DBName: dbName}
		attrs := ParseDBDefTag(field.Tag.Get("dbdef"))
		for key, value := range attrs {
			switch key {
			case "type":
				col.SQLType = value
			case "primary_key":
				col.IsPrimaryKey = true
			case "not_null":
				col.NotNull = true
			case "default":
				col.Default = value
				col.HasDefault = true
			case "auto_increment":
				col.AutoIncrement = true
			case "foreign_key", "fk":
				col.ForeignKey = value
			case "on_delete":
				col.OnDelete = value
			}
		}
		switch strings.ToLower(col.SQLType) {
		case "serial", "bigserial", "smallserial":
			col.AutoIncrement = true
		}
		if col.IsPrimaryKey {
			meta.PrimaryKeys = append(meta.PrimaryKeys, dbName)
		}
		meta.Columns[field.Name] = col
	}

	if meta.TableName == "" {
		meta.TableName = toSnakeCase(t.Name())
	}

	if err := meta.bind(t); err != nil {
		return nil, err
	}

	actual, _ := metadataCache.LoadOrStore(t, meta)
	return actual.(*ModelMetadata), nil
}

// ParseDBDefTag parses a dbdef tag string into a map of attributes
// Format: "type:serial;primary_key;default:false;not_null"
// Returns: map[string]string{"type": "serial", "primary_key": "", "default": "false", "not_null": ""}
func ParseDBDefTag(tagValue string) map[string]string {
	attributes := make(map[string]string)

	if tagValue == "" {
		return attributes
	}

	for _, part := range strings.Split(tagValue, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if kv := strings.SplitN(part, ":", 2); len(kv) == 2 {
			key := strings.TrimSpace(kv[0])
			value := strings.TrimSpace(kv[1])

			if existing, exists := attributes[key]; exists {
				attributes[key] = existing + ";" + value
			} else {
				attributes[key] = value
			}
		} else {
			attributes[part] = ""
		}
	}

	return attributes
}

// QuoteIdentifier quotes a PostgreSQL identifier. Needed for reserved
// words such as "user".
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
