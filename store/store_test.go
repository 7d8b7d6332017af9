package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/attr"
	"github.com/reoring/attrskema/codec"
	g "github.com/reoring/attrskema/dsl"
	"github.com/reoring/attrskema/store"
)

type Note struct {
	Title   string    `attr:"title"`
	Body    *string   `attr:"body"`
	Tags    []string  `attr:"tags"`
	Created time.Time `attr:"created"`
}

func openMem(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open("mem", store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open err: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func noteTable(t *testing.T, db *store.DB) *store.Table[Note] {
	t.Helper()
	c := g.Record[Note]("Note").
		Field("title", g.String()).
		Field("body", g.Optional(g.String())).
		Field("tags", g.Sequence(g.String())).
		Field("created", g.Time()).
		MustBind(attr.MustRegistry(codec.TimeRFC3339()))
	tbl, err := store.NewTable(db, "notes", c)
	if err != nil {
		t.Fatalf("table err: %v", err)
	}
	return tbl
}

func TestTable_PutGet(t *testing.T) {
	ctx := context.Background()
	tbl := noteTable(t, openMem(t))

	body := "hello"
	in := Note{Title: "first", Body: &body, Tags: []string{"a"}, Created: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)}
	id, err := tbl.Put(ctx, in)
	if err != nil {
		t.Fatalf("put err: %v", err)
	}
	got, err := tbl.Get(ctx, id)
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	if got.Title != in.Title || got.Body == nil || *got.Body != body || len(got.Tags) != 1 || !got.Created.Equal(in.Created) {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}

	m, err := tbl.GetAttributes(ctx, id)
	if err != nil {
		t.Fatalf("get attributes err: %v", err)
	}
	if m["created"] != attr.S("2025-05-01T08:00:00Z") {
		t.Fatalf("unexpected stored attributes %v", m)
	}
}

func TestTable_PutWithIDReplaces(t *testing.T) {
	ctx := context.Background()
	tbl := noteTable(t, openMem(t))
	id := ksuid.New()
	if err := tbl.PutWithID(ctx, id, Note{Title: "v1", Tags: []string{}}); err != nil {
		t.Fatalf("put err: %v", err)
	}
	if err := tbl.PutWithID(ctx, id, Note{Title: "v2", Tags: []string{}}); err != nil {
		t.Fatalf("put err: %v", err)
	}
	got, err := tbl.Get(ctx, id)
	if err != nil || got.Title != "v2" {
		t.Fatalf("expected replaced item, got %+v %v", got, err)
	}
	if got.Body != nil {
		t.Fatalf("absent optional must decode to nil")
	}
}

func TestTable_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	tbl := noteTable(t, openMem(t))
	if _, err := tbl.Get(ctx, ksuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	id, err := tbl.Put(ctx, Note{Title: "x", Tags: []string{}})
	if err != nil {
		t.Fatalf("put err: %v", err)
	}
	if err := tbl.Delete(ctx, id); err != nil {
		t.Fatalf("delete err: %v", err)
	}
	if _, err := tbl.Get(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := tbl.Delete(ctx, id); err != nil {
		t.Fatalf("deleting a missing item must succeed, got %v", err)
	}
}

func TestTable_TablesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openMem(t)
	notes := noteTable(t, db)
	other, err := store.NewTable(db, "other", attrskema.MustCompile[map[string]any](attr.MustRegistry(), g.DynamicRecord("Other").Field("title", g.String()).Schema()))
	if err != nil {
		t.Fatalf("table err: %v", err)
	}
	id, err := notes.Put(ctx, Note{Title: "x", Tags: []string{}})
	if err != nil {
		t.Fatalf("put err: %v", err)
	}
	if _, err := other.Get(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound in other table, got %v", err)
	}
}

func TestTable_DecodeError(t *testing.T) {
	ctx := context.Background()
	db := openMem(t)
	loose, err := store.NewTable(db, "notes", g.DynamicRecord("Loose").Field("title", g.String()).MustBind(attr.MustRegistry()))
	if err != nil {
		t.Fatalf("table err: %v", err)
	}
	id, err := loose.Put(ctx, map[string]any{"title": "only a title"})
	if err != nil {
		t.Fatalf("put err: %v", err)
	}
	_, err = noteTable(t, db).Get(ctx, id)
	if !errors.Is(err, attrskema.ErrMissingField) {
		t.Fatalf("expected decode to report the missing field, got %v", err)
	}
}

func TestTable_ContextCanceled(t *testing.T) {
	tbl := noteTable(t, openMem(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tbl.Put(ctx, Note{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := tbl.Get(ctx, ksuid.New()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewTable_InvalidName(t *testing.T) {
	db := openMem(t)
	c := g.DynamicRecord("X").MustBind(attr.MustRegistry())
	for _, name := range []string{"", "a/b"} {
		if _, err := store.NewTable(db, name, c); err == nil {
			t.Fatalf("expected error for table name %q", name)
		}
	}
}
