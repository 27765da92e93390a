// Package kvio implements store.Store on top of the badger key-value
// store.
//
// Layout of keys:
//
//	r/<table>/<id>                       gob-encoded record
//	u/<table>/<field>/<value>            id of the record owning a unique value
//	o/<table>/<order>/<sortkey>\x00<id>  id, keys of one order sort lexically
//
// All keys of a record are written in one transaction. Badger transactions
// are optimistic: when two transactions claim the same unique key, the
// second commit fails with badger.ErrConflict. Such transaction is re-run,
// it sees the committed key and returns *model.DuplicateKeyError.
package kvio

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"reflect"

	"github.com/dgraph-io/badger/v2"
	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/pkg/ent/model"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnsys"
)

// conflictRetries limits re-runs of a transaction after badger.ErrConflict.
const conflictRetries = 16

var errStop = errors.New("iteration stopped")

type kvio struct {
	dir string
	kv  *badger.DB
	enc gnfmt.GNgob
}

// New returns a new instance of kvio. If dir is empty, the data is kept in
// memory only.
func New(dir string) (store.Store, error) {
	res := kvio{
		dir: dir,
	}

	if dir == "" {
		return &res, nil
	}

	err := gnsys.MakeDir(dir)
	if err != nil {
		slog.Error("Cannot create directory", "error", err, "dir", dir)
		return nil, err
	}

	return &res, nil
}

// Open opens a key-value store.
func (k *kvio) Open() error {
	if k.kv != nil {
		slog.Warn("key-value store is already open")
		return nil
	}
	options := badger.DefaultOptions(k.dir)
	if k.dir == "" {
		options = options.WithInMemory(true)
	}
	options.Logger = nil

	bdb, err := badger.Open(options)
	if err != nil {
		return err
	}
	k.kv = bdb
	return nil
}

// Close closes a key-value store.
func (k *kvio) Close() error {
	if k.kv == nil {
		slog.Warn("key-value store is nil")
		return nil
	}
	err := k.kv.Close()
	k.kv = nil
	return err
}

// Migrate does nothing, key-value store has no schema.
func (k *kvio) Migrate() error {
	return nil
}

// Reset removes all keys.
func (k *kvio) Reset() error {
	if err := k.ready(); err != nil {
		return err
	}
	slog.Info("Resetting key-value store", "dir", k.dir)
	return k.kv.DropAll()
}

// Insert saves a new record together with its unique and order keys.
func (k *kvio) Insert(ctx context.Context, rec model.Record) error {
	if err := k.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := k.enc.Encode(rec)
	if err != nil {
		return fmt.Errorf("cannot encode %s record: %w", rec.TableName(), err)
	}
	table, id := rec.TableName(), rec.RecordID()

	return k.update(func(txn *badger.Txn) error {
		if err := claim(txn, table, id, true, rec.UniqueKeys()); err != nil {
			return err
		}
		rk := recordKey(table, id)
		_, err := txn.Get(rk)
		if err == nil {
			return &model.DuplicateKeyError{Table: table, Field: "id", Value: id}
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		if err = txn.Set(rk, val); err != nil {
			return err
		}
		return setOrderKeys(txn, table, id, rec.OrderKeys())
	})
}

// Update replaces a record and moves its unique and order keys.
func (k *kvio) Update(ctx context.Context, rec model.Record) error {
	if err := k.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := k.enc.Encode(rec)
	if err != nil {
		return fmt.Errorf("cannot encode %s record: %w", rec.TableName(), err)
	}
	table, id := rec.TableName(), rec.RecordID()

	return k.update(func(txn *badger.Txn) error {
		old, err := k.load(txn, rec, id)
		if err != nil {
			return err
		}
		if err = dropKeys(txn, old); err != nil {
			return err
		}
		if err = claim(txn, table, id, false, rec.UniqueKeys()); err != nil {
			return err
		}
		if err = txn.Set(recordKey(table, id), val); err != nil {
			return err
		}
		return setOrderKeys(txn, table, id, rec.OrderKeys())
	})
}

// Get decodes a record into dst.
func (k *kvio) Get(ctx context.Context, table, id string, dst any) error {
	if err := k.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var val []byte
	err := k.kv.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(table, id))
		if err == badger.ErrKeyNotFound {
			return &model.NotFoundError{Table: table, Key: id}
		}
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return err
	}
	return k.enc.Decode(val, dst)
}

// LookupUnique returns the ID of the record that owns a unique value.
func (k *kvio) LookupUnique(
	ctx context.Context,
	table, field, value string,
) (string, error) {
	if err := k.ready(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var id []byte
	err := k.kv.View(func(txn *badger.Txn) error {
		item, err := txn.Get(uniqueKey(table, field, value))
		if err == badger.ErrKeyNotFound {
			return &model.NotFoundError{Table: table, Key: value}
		}
		if err != nil {
			return err
		}
		id, err = item.ValueCopy(nil)
		return err
	})
	return string(id), err
}

// Delete removes a record with all its keys.
func (k *kvio) Delete(ctx context.Context, proto model.Record, id string) error {
	if err := k.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return k.update(func(txn *badger.Txn) error {
		old, err := k.load(txn, proto, id)
		if err != nil {
			return err
		}
		if err = dropKeys(txn, old); err != nil {
			return err
		}
		return txn.Delete(recordKey(proto.TableName(), id))
	})
}

// Scan walks order keys of a table. Records are read in the same read-only
// transaction, so an iteration sees a consistent snapshot.
func (k *kvio) Scan(
	ctx context.Context,
	proto model.Record,
	o model.Order,
) iter.Seq2[store.Decoder, error] {
	return func(yield func(store.Decoder, error) bool) {
		if err := k.ready(); err != nil {
			yield(nil, err)
			return
		}
		table := proto.TableName()
		if _, ok := proto.OrderKeys()[o]; !ok {
			yield(nil, fmt.Errorf("table %s cannot be sorted by %s", table, o))
			return
		}
		prefix := orderPrefix(table, o)

		err := k.kv.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				id, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				item, err := txn.Get(recordKey(table, string(id)))
				if err != nil {
					return fmt.Errorf("order key without record %s/%s: %w",
						table, id, err)
				}
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				dec := func(dst any) error { return k.enc.Decode(val, dst) }
				if !yield(dec, nil) {
					return errStop
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(nil, err)
		}
	}
}

func (k *kvio) ready() error {
	if k.kv == nil {
		return errors.New("key-value store is not open")
	}
	return nil
}

func (k *kvio) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range conflictRetries {
		err = k.kv.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// load reads a stored record into a new value of the prototype's type.
func (k *kvio) load(
	txn *badger.Txn,
	proto model.Record,
	id string,
) (model.Record, error) {
	table := proto.TableName()
	item, err := txn.Get(recordKey(table, id))
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Table: table, Key: id}
	}
	if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(reflect.TypeOf(proto))
	if err = k.enc.Decode(val, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface().(model.Record), nil
}

// claim takes ownership of unique values for the record id. For a new
// record every existing owner is a conflict.
func claim(
	txn *badger.Txn,
	table, id string,
	isNew bool,
	uks []model.UniqueKey,
) error {
	for _, uk := range uks {
		key := uniqueKey(table, uk.Field, uk.Value)
		item, err := txn.Get(key)
		switch {
		case err == nil:
			owner, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if isNew || string(owner) != id {
				return &model.DuplicateKeyError{
					Table: table, Field: uk.Field, Value: uk.Value,
				}
			}
		case err != badger.ErrKeyNotFound:
			return err
		}
		if err = txn.Set(key, []byte(id)); err != nil {
			return err
		}
	}
	return nil
}

func dropKeys(txn *badger.Txn, rec model.Record) error {
	table, id := rec.TableName(), rec.RecordID()
	for _, uk := range rec.UniqueKeys() {
		if err := txn.Delete(uniqueKey(table, uk.Field, uk.Value)); err != nil {
			return err
		}
	}
	for o, sk := range rec.OrderKeys() {
		if err := txn.Delete(orderKey(table, o, sk, id)); err != nil {
			return err
		}
	}
	return nil
}

func setOrderKeys(
	txn *badger.Txn,
	table, id string,
	keys map[model.Order]string,
) error {
	for o, sk := range keys {
		if err := txn.Set(orderKey(table, o, sk, id), []byte(id)); err != nil {
			return err
		}
	}
	return nil
}

func recordKey(table, id string) []byte {
	return []byte("r/" + table + "/" + id)
}

func uniqueKey(table, field, value string) []byte {
	return []byte("u/" + table + "/" + field + "/" + value)
}

func orderPrefix(table string, o model.Order) []byte {
	return []byte(fmt.Sprintf("o/%s/%d/", table, o))
}

func orderKey(table string, o model.Order, sortKey, id string) []byte {
	return append(orderPrefix(table, o), []byte(sortKey+"\x00"+id)...)
}
