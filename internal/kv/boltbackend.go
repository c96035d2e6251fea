// Copyright 2026 Tribbler Project. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	bolt "github.com/coreos/bbolt"
)

// boltBackend is an on-disk, single-process back end. It lays out one
// bucket per logical key-space, the same approach
// mixmasala-server/userdb/boltuserdb uses for its single "users" bucket:
// here there are three — "strings", "lists", and "meta" (which holds the
// clock counter under a fixed key).
type boltBackend struct {
	db *bolt.DB
}

var (
	bucketStrings = []byte("strings")
	bucketLists   = []byte("lists")
	bucketMeta    = []byte("meta")
	metaClockKey  = []byte("clock")
)

// NewBolt opens (creating if necessary) a BoltDB file at path and returns a
// Backend over it. The Backend interface has no Close method and the
// returned Backend does not expose its *bolt.DB, so the file stays open
// until the process exits.
func NewBolt(path string) (Backend, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("kv: open bolt db %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketStrings, bucketLists, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kv: init bolt buckets: %w", err)
	}
	return &boltBackend{db: db}, nil
}

func (b *boltBackend) Get(_ context.Context, key string) (string, bool, error) {
	var val string
	var ok bool
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketStrings).Get([]byte(key))
		if v != nil {
			val, ok = string(v), true
		}
		return nil
	})
	return val, ok, err
}

func (b *boltBackend) Set(_ context.Context, kv KeyValue) (bool, error) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStrings).Put([]byte(kv.Key), []byte(kv.Value))
	})
	return err == nil, err
}

func (b *boltBackend) Keys(_ context.Context, p Pattern) ([]string, error) {
	var out []string
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketStrings).Cursor()
		prefix := []byte(p.Prefix)
		for k, _ := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), p.Prefix); k, _ = c.Next() {
			if p.Match(string(k)) {
				out = append(out, string(k))
			}
		}
		return nil
	})
	return out, err
}

func (b *boltBackend) listValue(tx *bolt.Tx, key string) ([]string, error) {
	raw := tx.Bucket(bucketLists).Get([]byte(key))
	if raw == nil {
		return nil, nil
	}
	var vals []string
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, fmt.Errorf("kv: decode list %q: %w", key, err)
	}
	return vals, nil
}

func (b *boltBackend) ListGet(_ context.Context, key string) ([]string, error) {
	var out []string
	err := b.db.View(func(tx *bolt.Tx) error {
		vals, err := b.listValue(tx, key)
		out = vals
		return err
	})
	return out, err
}

func (b *boltBackend) ListAppend(_ context.Context, kv KeyValue) (bool, error) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		vals, err := b.listValue(tx, kv.Key)
		if err != nil {
			return err
		}
		vals = append(vals, kv.Value)
		raw, err := json.Marshal(vals)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketLists).Put([]byte(kv.Key), raw)
	})
	return err == nil, err
}

func (b *boltBackend) ListRemove(_ context.Context, kv KeyValue) (uint32, error) {
	var removed uint32
	err := b.db.Update(func(tx *bolt.Tx) error {
		vals, err := b.listValue(tx, kv.Key)
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			return nil
		}
		filtered := vals[:0]
		for _, v := range vals {
			if v == kv.Value {
				removed++
				continue
			}
			filtered = append(filtered, v)
		}
		raw, err := json.Marshal(filtered)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketLists).Put([]byte(kv.Key), raw)
	})
	return removed, err
}

func (b *boltBackend) ListKeys(_ context.Context, p Pattern) ([]string, error) {
	var out []string
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLists).Cursor()
		prefix := []byte(p.Prefix)
		for k, _ := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), p.Prefix); k, _ = c.Next() {
			if p.Match(string(k)) {
				out = append(out, string(k))
			}
		}
		return nil
	})
	return out, err
}

func (b *boltBackend) Clock(_ context.Context, atLeast uint64) (uint64, error) {
	var next uint64
	err := b.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		cur := decodeUint64(meta.Get(metaClockKey))
		if atLeast > cur {
			next = atLeast
		} else {
			next = cur + 1
		}
		return meta.Put(metaClockKey, encodeUint64(next))
	})
	return next, err
}

func encodeUint64(v uint64) []byte {
	return []byte(fmt.Sprintf("%020d", v))
}

func decodeUint64(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	var v uint64
	_, _ = fmt.Sscanf(string(b), "%020d", &v)
	return v
}
