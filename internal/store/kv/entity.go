package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/larderapp/larder-server/internal/store"
)

// entity provides generic CRUD for one record type inside a Badger transaction.
//
// Key layout:
//
//	<prefix><id>                          record JSON
//	<prefix>idx:<name>:<value>            id (unique index)
//	<prefix>idx:<name>:<value>:<id>       id (multi index)
type entity[T any] struct {
	prefix  string
	idOf    func(*T) string
	unique  []index[T]
	indexes []index[T]
}

// index defines a secondary index. keyGen returns "" when the record should not be indexed.
type index[T any] struct {
	name   string
	keyGen func(*T) string
}

func newEntity[T any](prefix string, idOf func(*T) string) *entity[T] {
	return &entity[T]{prefix: prefix, idOf: idOf}
}

// withUnique adds a unique secondary index; Create and Update reject collisions with
// store.ErrAlreadyExists.
func (e *entity[T]) withUnique(name string, keyGen func(*T) string) *entity[T] {
	e.unique = append(e.unique, index[T]{name: name, keyGen: keyGen})
	return e
}

// withIndex adds a non-unique secondary index.
func (e *entity[T]) withIndex(name string, keyGen func(*T) string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *entity[T]) uniqueKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

func (e *entity[T]) indexPrefix(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value + ":")
}

func (e *entity[T]) create(txn *badger.Txn, v *T) error {
	id := e.idOf(v)
	_, err := txn.Get(e.key(id))
	if err == nil {
		return store.ErrAlreadyExists
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check existing key: %w", err)
	}

	for _, idx := range e.unique {
		value := idx.keyGen(v)
		if value == "" {
			continue
		}
		if err := e.checkUnique(txn, idx.name, value); err != nil {
			return err
		}
	}

	return e.write(txn, v)
}

func (e *entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}

	var v T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", strings.TrimSuffix(e.prefix, ":"), err)
	}
	return &v, nil
}

// getByUnique resolves a unique index value to its record.
func (e *entity[T]) getByUnique(txn *badger.Txn, name, value string) (*T, error) {
	item, err := txn.Get(e.uniqueKey(name, value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get index key: %w", err)
	}

	var id string
	if err := item.Value(func(val []byte) error {
		id = string(val)
		return nil
	}); err != nil {
		return nil, err
	}
	return e.get(txn, id)
}

func (e *entity[T]) update(txn *badger.Txn, v *T) error {
	id := e.idOf(v)
	old, err := e.get(txn, id)
	if err != nil {
		return err
	}

	for _, idx := range e.unique {
		newValue, oldValue := idx.keyGen(v), idx.keyGen(old)
		if newValue == "" || newValue == oldValue {
			continue
		}
		if err := e.checkUnique(txn, idx.name, newValue); err != nil {
			return err
		}
	}

	if err := e.deleteIndexes(txn, old); err != nil {
		return err
	}
	return e.write(txn, v)
}

// delete is idempotent.
func (e *entity[T]) delete(txn *badger.Txn, id string) error {
	old, err := e.get(txn, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := e.deleteIndexes(txn, old); err != nil {
		return err
	}
	if err := txn.Delete(e.key(id)); err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}

// listBy returns every record whose multi index named name has the given value,
// in index key order.
func (e *entity[T]) listBy(txn *badger.Txn, name, value string) ([]*T, error) {
	prefix := e.indexPrefix(name, value)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		}); err != nil {
			it.Close()
			return nil, err
		}
	}
	it.Close()

	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		v, err := e.get(txn, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// list returns every record of this type.
func (e *entity[T]) list(txn *badger.Txn) ([]*T, error) {
	prefix := []byte(e.prefix)
	indexPrefix := e.prefix + "idx:"

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*T
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if strings.HasPrefix(string(it.Item().Key()), indexPrefix) {
			continue
		}
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", strings.TrimSuffix(e.prefix, ":"), err)
		}
		out = append(out, &v)
	}
	return out, nil
}

func (e *entity[T]) checkUnique(txn *badger.Txn, name, value string) error {
	_, err := txn.Get(e.uniqueKey(name, value))
	if err == nil {
		return fmt.Errorf("index %s conflict on key %s: %w", name, value, store.ErrAlreadyExists)
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check index key: %w", err)
	}
	return nil
}

func (e *entity[T]) write(txn *badger.Txn, v *T) error {
	id := e.idOf(v)
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}
	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("set key: %w", err)
	}

	for _, idx := range e.unique {
		if value := idx.keyGen(v); value != "" {
			if err := txn.Set(e.uniqueKey(idx.name, value), []byte(id)); err != nil {
				return fmt.Errorf("set index key: %w", err)
			}
		}
	}
	for _, idx := range e.indexes {
		if value := idx.keyGen(v); value != "" {
			k := append(e.indexPrefix(idx.name, value), id...)
			if err := txn.Set(k, []byte(id)); err != nil {
				return fmt.Errorf("set index key: %w", err)
			}
		}
	}
	return nil
}

func (e *entity[T]) deleteIndexes(txn *badger.Txn, old *T) error {
	id := e.idOf(old)
	for _, idx := range e.unique {
		if value := idx.keyGen(old); value != "" {
			if err := txn.Delete(e.uniqueKey(idx.name, value)); err != nil {
				return fmt.Errorf("delete index key: %w", err)
			}
		}
	}
	for _, idx := range e.indexes {
		if value := idx.keyGen(old); value != "" {
			k := append(e.indexPrefix(idx.name, value), id...)
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("delete index key: %w", err)
			}
		}
	}
	return nil
}
