package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"retreatcore/pkg/domain"
)

func fixtureDocument() *domain.Document {
	doc := domain.NewDocument()
	doc.Title = "Spring Retreat"
	doc.Admins = []string{"admin@x.com"}
	doc.Registrations["reg-1"] = domain.Registration{
		Group: "a@x.com", FullName: "Alice Allison", Name: "Alice", Email: "a@x.com",
		Phone: "1", Emergency: "2", Reservations: []string{}, Adjustments: []domain.Adjustment{},
	}
	return doc
}

func TestNewStoreAppliesDDLAndHydratesSnapshot(t *testing.T) {
	db, conn := newStubDB()
	payload, err := json.Marshal(fixtureDocument())
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	conn.payload = payload

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Title != "Spring Retreat" || doc.Registrations["reg-1"].Name != "Alice" {
		t.Fatalf("document not hydrated: %+v", doc)
	}
	var sawDDL bool
	for _, stmt := range conn.execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			sawDDL = true
			break
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.execs)
	}
}

func TestNewStoreStartsEmptyWithoutSnapshot(t *testing.T) {
	db, _ := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	doc, _ := store.Load(context.Background())
	if doc.Title != "" || len(doc.Registrations) != 0 {
		t.Fatalf("expected skeleton, got %+v", doc)
	}
}

func TestUpdatePersistsSnapshot(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	err = store.Update(context.Background(), func(doc *domain.Document) (*domain.Document, error) {
		doc.Title = "Autumn Retreat"
		return doc, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if conn.payload == nil {
		t.Fatal("snapshot not written")
	}
	persisted := domain.NewDocument()
	if err := json.Unmarshal(conn.payload, persisted); err != nil {
		t.Fatalf("decode persisted snapshot: %v", err)
	}
	if persisted.Title != "Autumn Retreat" {
		t.Fatalf("persisted title %q", persisted.Title)
	}
}

func TestUpdateErrorDoesNotPersist(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	boom := errors.New("boom")
	err = store.Update(context.Background(), func(doc *domain.Document) (*domain.Document, error) {
		doc.Title = "Mutated"
		return doc, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error %v", err)
	}
	if conn.payload != nil {
		t.Fatal("failed update wrote a snapshot")
	}
}

func TestNewStoreOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, fmt.Errorf("open fail")
	})
	defer restore()
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "open fail") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestNewStorePingError(t *testing.T) {
	db, conn := newStubDB()
	conn.failPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestNewStoreDDLError(t *testing.T) {
	db, conn := newStubDB()
	conn.failExec = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected ddl error")
	}
}

func TestStoreDBExposesHandle(t *testing.T) {
	db, _ := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.DB() == nil {
		t.Fatal("expected DB handle")
	}
}

// --- stub driver helpers ---

type stubDriver struct {
	conn *stubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// stubConn implements just enough of database/sql/driver for the single-table
// snapshot store: DDL and upsert via ExecContext, snapshot select via
// QueryContext, Ping.
type stubConn struct {
	execs    []string
	payload  []byte
	failPing bool
	failExec bool
}

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return nil, fmt.Errorf("not implemented") }

func (c *stubConn) Ping(context.Context) error {
	if c.failPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, query)
	if c.failExec {
		return nil, fmt.Errorf("exec fail")
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO STATE") {
		if len(args) != 2 {
			return nil, fmt.Errorf("unexpected args for upsert: %v", args)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload is %T", args[1].Value)
		}
		c.payload = append([]byte(nil), payload...)
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(strings.ToLower(query), "from state") {
		return nil, fmt.Errorf("cannot answer query: %s", query)
	}
	rows := &stubRows{cols: []string{"payload"}}
	if c.payload != nil {
		rows.rows = [][]driver.Value{{append([]byte(nil), c.payload...)}}
	}
	return rows, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
