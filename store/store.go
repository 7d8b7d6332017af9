// Package store is a small item store over pebble. Items are attribute maps
// persisted in attr's binary form under "<table>/<ksuid>" keys; tables decode
// and encode them through an attrskema codec on every access.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/attr"
)

// ErrNotFound is returned when no item is stored under an id.
var ErrNotFound = errors.New("store: item not found")

// Options configures Open.
type Options struct {
	// InMemory keeps all data in memory; dir is then only a name.
	InMemory bool
	// Sync makes every write durable before it returns.
	Sync bool
	// Logger receives debug logs for writes and deletes. Nil disables logging.
	Logger *zap.Logger
}

// DB is an open store.
type DB struct {
	db    *pebble.DB
	log   *zap.Logger
	write *pebble.WriteOptions
}

// Open opens (creating if needed) the store in dir.
func Open(dir string, opts Options) (*DB, error) {
	po := &pebble.Options{}
	if opts.InMemory {
		po.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, po)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dir, err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	write := pebble.NoSync
	if opts.Sync {
		write = pebble.Sync
	}
	log.Debug("store opened", zap.String("dir", dir), zap.Bool("in_memory", opts.InMemory))
	return &DB{db: db, log: log, write: write}, nil
}

// Close closes the store.
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) get(key []byte) (attrskema.AttributeMap, error) {
	data, closer, err := d.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	// data is only valid until closer is closed; UnmarshalBinary copies.
	return attr.UnmarshalBinary(data)
}

func (d *DB) put(key []byte, m attrskema.AttributeMap) error {
	b, err := attr.MarshalBinary(m)
	if err != nil {
		return err
	}
	return d.db.Set(key, b, d.write)
}

// Table is a typed view of one table.
type Table[T any] struct {
	db    *DB
	name  string
	codec *attrskema.Codec[T]
}

// NewTable returns the table called name, reading and writing T through c.
func NewTable[T any](db *DB, name string, c *attrskema.Codec[T]) (*Table[T], error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("store: invalid table name %q", name)
	}
	if c == nil {
		return nil, errors.New("store: nil codec")
	}
	return &Table[T]{db: db, name: name, codec: c}, nil
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) key(id ksuid.KSUID) []byte {
	return []byte(t.name + "/" + id.String())
}

// Put stores v under a new id.
func (t *Table[T]) Put(ctx context.Context, v T) (ksuid.KSUID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return ksuid.Nil, fmt.Errorf("store: new id: %w", err)
	}
	if err := t.PutWithID(ctx, id, v); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// PutWithID stores v under id, replacing any existing item. Fields without a
// stored representation are dropped, as with attrskema.Codec.Encode.
func (t *Table[T]) PutWithID(ctx context.Context, id ksuid.KSUID, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := t.codec.Encode(v)
	if err := t.db.put(t.key(id), m); err != nil {
		return fmt.Errorf("store: put %s/%s: %w", t.name, id, err)
	}
	t.db.log.Debug("item stored",
		zap.String("table", t.name),
		zap.Stringer("id", id),
		zap.Int("attributes", len(m)))
	return nil
}

// Get loads and decodes the item stored under id.
func (t *Table[T]) Get(ctx context.Context, id ksuid.KSUID) (T, error) {
	var zero T
	m, err := t.GetAttributes(ctx, id)
	if err != nil {
		return zero, err
	}
	v, err := t.codec.Decode(m)
	if err != nil {
		return zero, fmt.Errorf("store: decode %s/%s: %w", t.name, id, err)
	}
	return v, nil
}

// GetAttributes loads the raw attribute map stored under id.
func (t *Table[T]) GetAttributes(ctx context.Context, id ksuid.KSUID) (attrskema.AttributeMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := t.db.get(t.key(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get %s/%s: %w", t.name, id, err)
	}
	return m, nil
}

// Delete removes the item stored under id. Deleting a missing item is not an
// error.
func (t *Table[T]) Delete(ctx context.Context, id ksuid.KSUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.db.db.Delete(t.key(id), t.db.write); err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", t.name, id, err)
	}
	t.db.log.Debug("item deleted", zap.String("table", t.name), zap.Stringer("id", id))
	return nil
}
