package middle

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/osm2pgsql/mid/pkg/osm"
)

var (
	bucketWays             = []byte("ways")
	bucketWaysPending      = []byte("ways-pending")
	bucketRelations        = []byte("relations")
	bucketRelationsPending = []byte("relations-pending")
	bucketWayRelations     = []byte("way-relations")
)

func encodeID(id osm.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id)^(uint64(1)<<63))
	return buf
}

func decodeID(buf []byte) osm.ID {
	u := binary.BigEndian.Uint64(buf)
	return osm.ID(u ^ (uint64(1) << 63))
}

// BoltStore is the persistent way/relation store.
type BoltStore struct {
	db *bolt.DB

	haveWayWatermark bool
	wayWatermark     osm.ID
	haveRelWatermark bool
	relWatermark     osm.ID
}

// OpenBoltStore opens (creating if necessary) the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketWays, bucketWaysPending, bucketRelations, bucketRelationsPending, bucketWayRelations} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

// SetWay inserts or replaces a way record and updates its pending mark.
func (s *BoltStore) SetWay(way *osm.Way) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(way)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketWays).Put(encodeID(way.ID), data)
	})
	if err != nil {
		return newError(CodeIOError, "ways_set", way.ID, err)
	}

	if way.Pending {
		return s.MarkPendingWay(way.ID)
	}
	return s.ClearPendingWay(way.ID)
}

// GetWay returns a way record, or a CodeMissing error if absent.
func (s *BoltStore) GetWay(id osm.ID) (*osm.Way, error) {
	var way osm.Way
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketWays).Get(encodeID(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &way)
	})
	if err != nil {
		return nil, newError(CodeIOError, "way_get", id, err)
	}
	if !found {
		return nil, newError(CodeMissing, "way_get", id, ErrMissing)
	}
	return &way, nil
}

// GetWays resolves ids in order, skipping ids that don't exist.
func (s *BoltStore) GetWays(ids []osm.ID) ([]*osm.Way, error) {
	out := make([]*osm.Way, 0, len(ids))

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWays)
		for _, id := range ids {
			data := b.Get(encodeID(id))
			if data == nil {
				continue
			}
			var w osm.Way
			if err := json.Unmarshal(data, &w); err != nil {
				return err
			}
			out = append(out, &w)
		}
		return nil
	})
	if err != nil {
		return nil, newError(CodeIOError, "ways_get_list", 0, err)
	}
	return out, nil
}

// DeleteWay removes a way record and its pending mark.
func (s *BoltStore) DeleteWay(id osm.ID) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWays).Delete(encodeID(id))
	})
	if err != nil {
		return newError(CodeIOError, "way_delete", id, err)
	}
	return s.ClearPendingWay(id)
}

// SetRelation inserts or replaces a relation record, diffing its way
// membership against any previous record to keep the way->relations
// reverse index correct, and updates its pending mark.
func (s *BoltStore) SetRelation(rel *osm.Relation) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		relBucket := tx.Bucket(bucketRelations)
		wrBucket := tx.Bucket(bucketWayRelations)

		var old osm.Relation
		haveOld := false
		if data := relBucket.Get(encodeID(rel.ID)); data != nil {
			if err := json.Unmarshal(data, &old); err != nil {
				return err
			}
			haveOld = true
		}

		if haveOld {
			for _, wid := range old.WayMembers() {
				if sub := wrBucket.Bucket(encodeID(wid)); sub != nil {
					if err := sub.Delete(encodeID(rel.ID)); err != nil {
						return err
					}
				}
			}
		}

		for _, wid := range rel.WayMembers() {
			sub, err := wrBucket.CreateBucketIfNotExists(encodeID(wid))
			if err != nil {
				return err
			}
			if err := sub.Put(encodeID(rel.ID), nil); err != nil {
				return err
			}
		}

		data, err := json.Marshal(rel)
		if err != nil {
			return err
		}
		return relBucket.Put(encodeID(rel.ID), data)
	})
	if err != nil {
		return newError(CodeIOError, "relations_set", rel.ID, err)
	}

	if rel.Pending {
		return s.MarkPendingRelation(rel.ID)
	}
	return s.ClearPendingRelation(rel.ID)
}

// GetRelation returns a relation record, or a CodeMissing error if absent.
func (s *BoltStore) GetRelation(id osm.ID) (*osm.Relation, error) {
	var rel osm.Relation
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRelations).Get(encodeID(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rel)
	})
	if err != nil {
		return nil, newError(CodeIOError, "relation_get", id, err)
	}
	if !found {
		return nil, newError(CodeMissing, "relation_get", id, ErrMissing)
	}
	return &rel, nil
}

// DeleteRelation removes a relation record, drops it from the way->relations
// reverse index, and clears its pending mark.
func (s *BoltStore) DeleteRelation(id osm.ID) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		relBucket := tx.Bucket(bucketRelations)
		wrBucket := tx.Bucket(bucketWayRelations)

		data := relBucket.Get(encodeID(id))
		if data != nil {
			var rel osm.Relation
			if err := json.Unmarshal(data, &rel); err != nil {
				return err
			}
			for _, wid := range rel.WayMembers() {
				if sub := wrBucket.Bucket(encodeID(wid)); sub != nil {
					if err := sub.Delete(encodeID(id)); err != nil {
						return err
					}
				}
			}
		}
		return relBucket.Delete(encodeID(id))
	})
	if err != nil {
		return newError(CodeIOError, "relation_delete", id, err)
	}
	return s.ClearPendingRelation(id)
}

// RelationsUsingWay returns, in ascending deduplicated order, the ids of
// relations that reference wayID as a member.
func (s *BoltStore) RelationsUsingWay(wayID osm.ID) ([]osm.ID, error) {
	var ids []osm.ID

	err := s.db.View(func(tx *bolt.Tx) error {
		sub := tx.Bucket(bucketWayRelations).Bucket(encodeID(wayID))
		if sub == nil {
			return nil
		}
		return sub.ForEach(func(k, v []byte) error {
			ids = append(ids, decodeID(k))
			return nil
		})
	})
	if err != nil {
		return nil, newError(CodeIOError, "relations_using_way", wayID, err)
	}
	return ids, nil
}

func (s *BoltStore) MarkPendingWay(id osm.ID) error {
	return s.markPending(bucketWaysPending, id, &s.haveWayWatermark, &s.wayWatermark)
}

func (s *BoltStore) ClearPendingWay(id osm.ID) error {
	return s.clearPending(bucketWaysPending, id)
}

func (s *BoltStore) MarkPendingRelation(id osm.ID) error {
	return s.markPending(bucketRelationsPending, id, &s.haveRelWatermark, &s.relWatermark)
}

func (s *BoltStore) ClearPendingRelation(id osm.ID) error {
	return s.clearPending(bucketRelationsPending, id)
}

// markPending drops ids at or below the current iteration watermark, per
// the pending-id protocol's documented limitation: late re-marks below
// the watermark are not redelivered.
func (s *BoltStore) markPending(bucket []byte, id osm.ID, have *bool, watermark *osm.ID) error {
	if *have && id <= *watermark {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(encodeID(id), nil)
	})
	if err != nil {
		return newError(CodeIOError, "mark_pending", id, err)
	}
	return nil
}

func (s *BoltStore) clearPending(bucket []byte, id osm.ID) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(encodeID(id))
	})
	if err != nil {
		return newError(CodeIOError, "clear_pending", id, err)
	}
	return nil
}

// IteratePendingWays invokes fn with each pending way id in ascending
// order, clearing the mark before the callback runs. fn may call
// MarkPendingWay to enqueue further ids; ids greater than the current
// watermark are delivered within the same iteration.
func (s *BoltStore) IteratePendingWays(fn func(id osm.ID) error) error {
	return s.iteratePending(bucketWaysPending, &s.haveWayWatermark, &s.wayWatermark, fn)
}

// IteratePendingRelations is the relation-id analogue of IteratePendingWays.
func (s *BoltStore) IteratePendingRelations(fn func(id osm.ID) error) error {
	return s.iteratePending(bucketRelationsPending, &s.haveRelWatermark, &s.relWatermark, fn)
}

func (s *BoltStore) iteratePending(bucket []byte, have *bool, watermark *osm.ID, fn func(id osm.ID) error) error {
	*have = false
	defer func() { *have = false }()
	for {
		var nextKey []byte
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			c := b.Cursor()
			k, _ := c.First()
			if k == nil {
				return nil
			}
			nextKey = append([]byte(nil), k...)
			return b.Delete(k)
		})
		if err != nil {
			return newError(CodeIOError, "iterate_pending", 0, err)
		}
		if nextKey == nil {
			break
		}

		id := decodeID(nextKey)
		*watermark = id
		*have = true

		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}
