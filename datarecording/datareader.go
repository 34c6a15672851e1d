package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// QueryParams narrows and orders a table query. Where and OrderBy are SQL
// fragments without their keywords, for example "Location = ?" and
// "Step ASC". A zero Limit returns every matching row.
type QueryParams struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

// DataReader reads tables written by a DataRecorder.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table decode
	// into. A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the mapped tables in name order.
	ListTables() []string

	// Query returns pointers to the decoded rows and the number of rows that
	// match the filter, ignoring Limit and Offset.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

// QueryAs maps the table to T and returns the decoded rows as values.
func QueryAs[T any](
	ctx context.Context,
	r DataReader,
	tableName string,
	params QueryParams,
) ([]T, int, error) {
	var sample T
	r.MapTable(tableName, sample)

	rows, total, err := r.Query(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = *row.(*T)
	}

	return out, total, nil
}

type sqliteReader struct {
	db    *sql.DB
	types map[string]reflect.Type
}

// NewReader opens a trace database read-only. It fails if the file does not
// exist.
func NewReader(path string) (DataReader, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB reads from an already opened database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:    db,
		types: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	r.types[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.types))
	for table := range r.types {
		tables = append(tables, table)
	}

	sort.Strings(tables)

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	entryType, ok := r.types[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		buildQuery("COUNT(*)", tableName, QueryParams{Where: params.Where}),
		params.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", tableName, err)
	}

	rows, err := r.db.QueryContext(ctx,
		buildQuery("*", tableName, params), params.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	results, err := decodeRows(rows, entryType)
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", tableName, err)
	}

	return results, total, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

func buildQuery(columns, tableName string, params QueryParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "SELECT %s FROM %s", columns, tableName)

	if params.Where != "" {
		b.WriteString(" WHERE " + params.Where)
	}

	if params.OrderBy != "" {
		b.WriteString(" ORDER BY " + params.OrderBy)
	}

	if params.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", params.Limit, params.Offset)
	}

	return b.String()
}

// decodeRows fills one new entryType value per row, matching columns to
// fields by name. Columns without a field are skipped.
func decodeRows(rows *sql.Rows, entryType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldIndex := make([]int, len(columns))
	for i, col := range columns {
		fieldIndex[i] = -1
		if f, ok := entryType.FieldByName(col); ok && len(f.Index) == 1 {
			fieldIndex[i] = f.Index[0]
		}
	}

	var results []any
	targets := make([]any, len(columns))

	for rows.Next() {
		entry := reflect.New(entryType)

		for i, idx := range fieldIndex {
			if idx < 0 {
				targets[i] = new(any)
				continue
			}

			targets[i] = entry.Elem().Field(idx).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, entry.Interface())
	}

	return results, rows.Err()
}
