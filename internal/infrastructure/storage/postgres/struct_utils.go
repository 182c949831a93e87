package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// Columns returns the column names of T's "db" tags, embedded structs
// included, in declaration order. Called once per repo at construction.
//
//	cols := Columns[invoice.Invoice]()
//	// ["id", "version", "created_at", ..., "company_id", "number", ...]
func Columns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

// ColumnsExcept is Columns without the named columns.
func ColumnsExcept[T any](skip ...string) []string {
	return slices.DeleteFunc(Columns[T](), func(c string) bool {
		return slices.Contains(skip, c)
	})
}

func columnsOf(t reflect.Type) []string {
	meta := metadataOf(t)
	cols := make([]string, 0, len(meta.fields))
	for _, f := range meta.fields {
		if f.embedded {
			cols = append(cols, columnsOf(t.Field(f.index).Type)...)
			continue
		}
		cols = append(cols, f.column)
	}
	return cols
}

type field struct {
	index    int
	column   string
	embedded bool
}

type metadata struct {
	fields []field
}

var metadataCache sync.Map // map[reflect.Type]*metadata

func metadataOf(t reflect.Type) *metadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := metadataCache.Load(t); ok {
		return cached.(*metadata)
	}

	meta := &metadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.Anonymous {
				meta.fields = append(meta.fields, field{index: i, embedded: true})
				continue
			}
			tag := sf.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, field{index: i, column: tag})
		}
	}

	actual, _ := metadataCache.LoadOrStore(t, meta)
	return actual.(*metadata)
}

// StructToMap converts a struct to a column->value map using "db" tags.
// Fields tagged "-" or untagged are left out.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	res := make(map[string]any)
	collect(rv, res)
	return res
}

func collect(rv reflect.Value, into map[string]any) {
	for _, f := range metadataOf(rv.Type()).fields {
		fv := rv.Field(f.index)
		if f.embedded {
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				collect(fv, into)
			}
			continue
		}
		into[f.column] = fv.Interface()
	}
}

// Pick keeps only the listed columns of data.
func Pick(data map[string]any, cols []string) map[string]any {
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		if v, ok := data[c]; ok {
			out[c] = v
		}
	}
	return out
}
