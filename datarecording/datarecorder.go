// Package datarecording stores flat records, such as station traces, in
// SQLite tables.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/structs"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder buffers rows in memory and writes them to tables in batches.
// Infrastructure failures, such as a full disk, panic.
type DataRecorder interface {
	// CreateTable creates a table with one column per field of sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers a row. The entry must have the type of the sample
	// the table was created with.
	InsertData(tableName string, entry any)

	// ListTables returns the created tables in name order.
	ListTables() []string

	// Flush writes all buffered rows in one transaction.
	Flush()

	// Close flushes and releases the database. Closing twice is allowed.
	Close() error
}

// ErrInvalidEntry is returned when an entry cannot be stored as a row.
var ErrInvalidEntry = errors.New("entry is invalid")

const defaultBatchSize = 100000

// New creates a recorder writing to path + ".sqlite3". An empty path picks
// a unique name. It panics if the file exists. Buffered rows are flushed
// when the program exits through atexit.
func New(path string) DataRecorder {
	if path == "" {
		path = "llrf_trace_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	slog.Debug("recording to database", "file", filename)

	w := newWriter(db)
	atexit.Register(w.Flush)

	return w
}

// NewWithDB records into an already opened database.
func NewWithDB(db *sql.DB) DataRecorder {
	return newWriter(db)
}

func newWriter(db *sql.DB) *sqliteWriter {
	return &sqliteWriter{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}
}

type table struct {
	entryType reflect.Type
	insertSQL string
	pending   []any
}

type sqliteWriter struct {
	sync.Mutex

	db        *sql.DB
	tables    map[string]*table
	batchSize int
	pending   int
	closed    bool
}

func storableKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

// checkStructFields rejects entries that cannot be stored column by column.
// Complex signals have to be split into real and imaginary fields.
func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T is not a struct", ErrInvalidEntry, entry)
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		if !f.IsExported() {
			return fmt.Errorf("%w: field %s is not exported",
				ErrInvalidEntry, f.Name)
		}

		if !storableKind(f.Type.Kind()) {
			return fmt.Errorf("%w: field %s has kind %s",
				ErrInvalidEntry, f.Name, f.Type.Kind())
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	w.Lock()
	defer w.Unlock()

	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	columns := structs.Names(sampleEntry)
	w.mustExec(fmt.Sprintf("CREATE TABLE %s (%s)",
		tableName, strings.Join(columns, ", ")))

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(columns)), ", ")

	w.tables[tableName] = &table{
		entryType: reflect.TypeOf(sampleEntry),
		insertSQL: fmt.Sprintf("INSERT INTO %s VALUES (%s)",
			tableName, placeholders),
	}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	w.Lock()

	t, exists := w.tables[tableName]
	if !exists {
		w.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.entryType {
		w.Unlock()
		panic(fmt.Sprintf("entry of type %T does not match table %s",
			entry, tableName))
	}

	t.pending = append(t.pending, entry)
	w.pending++
	full := w.pending >= w.batchSize

	w.Unlock()

	if full {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	w.Lock()
	defer w.Unlock()

	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (w *sqliteWriter) Flush() {
	w.Lock()
	defer w.Unlock()

	if w.pending == 0 || w.closed {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		panic(err)
	}

	for name, t := range w.tables {
		if len(t.pending) == 0 {
			continue
		}

		if err := insertAll(tx, t); err != nil {
			_ = tx.Rollback()
			panic(fmt.Errorf("write table %s: %w", name, err))
		}

		t.pending = nil
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	w.pending = 0
}

func insertAll(tx *sql.Tx, t *table) error {
	stmt, err := tx.Prepare(t.insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range t.pending {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return err
		}
	}

	return nil
}

func (w *sqliteWriter) Close() error {
	w.Flush()

	w.Lock()
	defer w.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true

	return w.db.Close()
}

func (w *sqliteWriter) mustExec(query string) {
	if _, err := w.db.Exec(query); err != nil {
		panic(fmt.Errorf("execute %q: %w", query, err))
	}
}
