package middle

import (
	"errors"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/osm2pgsql/mid/pkg/flatnode"
	"github.com/osm2pgsql/mid/pkg/nodecache"
	"github.com/osm2pgsql/mid/pkg/osm"
)

// Location is a resolved node coordinate as returned by the façade.
type Location struct {
	Lon, Lat float64
}

type flatAccessor interface {
	Get(id osm.ID) (flatnode.Location, bool)
	GetList(ids []osm.ID) []flatnode.Location
}

// FacadeConfig configures a new Facade. NodeCache and FlatNodePath are
// both optional; at least one should be set for node lookups to resolve
// anything.
type FacadeConfig struct {
	Store         *BoltStore
	NodeCache     *nodecache.Config
	FlatNodePath  string
	ReadCacheSize int
}

// Facade is the query surface the output stage uses: node coordinate
// resolution backed by B (RAM) then C (flat file), and way/relation
// lookups backed by the BoltStore through an LRU read-through cache.
type Facade struct {
	store *BoltStore

	nodeCacheCfg *nodecache.Config
	nodes        *nodecache.Cache

	flatPath   string
	flat       flatAccessor
	flatWriter *flatnode.Store
	flatCloser io.Closer

	wayLRUSize int
	relLRUSize int
	wayCache   *lru.Cache[osm.ID, *osm.Way]
	relCache   *lru.Cache[osm.ID, *osm.Relation]
}

// NewFacade builds the primary (writable) Facade used by stage 1
// ingestion.
func NewFacade(cfg FacadeConfig) (*Facade, error) {
	f := &Facade{store: cfg.Store, flatPath: cfg.FlatNodePath}

	if cfg.NodeCache != nil {
		nc := *cfg.NodeCache
		f.nodeCacheCfg = &nc
		f.nodes = nodecache.New(nc)
	}

	if cfg.FlatNodePath != "" {
		store, err := flatnode.Open(cfg.FlatNodePath)
		if err != nil {
			return nil, err
		}
		f.flatWriter = store
		f.flat = store
		f.flatCloser = store
	}

	size := cfg.ReadCacheSize
	if size <= 0 {
		size = 4096
	}
	wayCache, err := lru.New[osm.ID, *osm.Way](size)
	if err != nil {
		return nil, err
	}
	relCache, err := lru.New[osm.ID, *osm.Relation](size)
	if err != nil {
		return nil, err
	}
	f.wayCache = wayCache
	f.relCache = relCache
	f.wayLRUSize = size
	f.relLRUSize = size

	return f, nil
}

// Clone returns an independent read-only Facade sharing the same
// BoltStore handle but with its own node cache and flat node file
// reader, for use by one stage-2 worker goroutine.
func (f *Facade) Clone() (*Facade, error) {
	clone := &Facade{store: f.store, flatPath: f.flatPath}

	if f.nodeCacheCfg != nil {
		nc := *f.nodeCacheCfg
		clone.nodeCacheCfg = &nc
		clone.nodes = nodecache.New(nc)
	}

	if f.flatPath != "" {
		reader, err := flatnode.OpenReader(f.flatPath)
		if err != nil {
			return nil, err
		}
		clone.flat = reader
		clone.flatCloser = reader
	}

	wayCache, err := lru.New[osm.ID, *osm.Way](f.wayLRUSize)
	if err != nil {
		return nil, err
	}
	relCache, err := lru.New[osm.ID, *osm.Relation](f.relLRUSize)
	if err != nil {
		return nil, err
	}
	clone.wayCache = wayCache
	clone.relCache = relCache
	clone.wayLRUSize = f.wayLRUSize
	clone.relLRUSize = f.relLRUSize

	return clone, nil
}

// Close releases any file handle this Facade owns. Cloned facades each
// own their own flatnode.Reader; the primary facade owns the writer.
func (f *Facade) Close() error {
	if f.flatCloser != nil {
		return f.flatCloser.Close()
	}
	return nil
}

// NodesSet stores a node location in both the RAM cache and the flat
// file, whichever are configured. The RAM cache is a pure front end:
// durable state lives only in the flat file.
func (f *Facade) NodesSet(id osm.ID, lon, lat float64) error {
	if f.nodes != nil {
		if err := f.nodes.Set(id, lon, lat); err != nil {
			switch {
			case errors.Is(err, nodecache.ErrCacheFull):
				return newError(CodeCacheFull, "nodes_set", id, err)
			case errors.Is(err, nodecache.ErrOutOfOrder):
				return newError(CodeOutOfOrder, "nodes_set", id, err)
			default:
				return newError(CodeIOError, "nodes_set", id, err)
			}
		}
	}
	if f.flatWriter != nil {
		if err := f.flatWriter.Set(id, lon, lat); err != nil {
			if errors.Is(err, flatnode.ErrInvalidID) {
				return newError(CodeInvalidID, "nodes_set", id, err)
			}
			return newError(CodeIOError, "nodes_set", id, err)
		}
	}
	return nil
}

// NodesDelete removes a node location from both the RAM cache and the
// flat file; subsequent lookups for id resolve to nothing.
func (f *Facade) NodesDelete(id osm.ID) error {
	if f.nodes != nil {
		f.nodes.Delete(id)
	}
	if f.flatWriter != nil {
		if err := f.flatWriter.Delete(id); err != nil {
			if errors.Is(err, flatnode.ErrInvalidID) {
				return newError(CodeInvalidID, "node_delete", id, err)
			}
			return newError(CodeIOError, "node_delete", id, err)
		}
	}
	return nil
}

// NodesGetList resolves ids in order, probing the RAM cache first and
// falling back to the flat file; ids that resolve nowhere are dropped.
func (f *Facade) NodesGetList(ids []osm.ID) []Location {
	out := make([]Location, 0, len(ids))
	for _, id := range ids {
		if f.nodes != nil {
			if loc, ok := f.nodes.Get(id); ok {
				out = append(out, Location{Lon: loc.Lon, Lat: loc.Lat})
				continue
			}
		}
		if f.flat != nil {
			if loc, ok := f.flat.Get(id); ok {
				out = append(out, Location{Lon: loc.Lon, Lat: loc.Lat})
			}
		}
	}
	return out
}

// WayGet resolves a way, consulting the read-through cache first.
func (f *Facade) WayGet(id osm.ID) (*osm.Way, error) {
	if w, ok := f.wayCache.Get(id); ok {
		return w, nil
	}
	w, err := f.store.GetWay(id)
	if err != nil {
		return nil, err
	}
	f.wayCache.Add(id, w)
	return w, nil
}

// WaysGetList resolves the subset of ids that exist, preserving order.
func (f *Facade) WaysGetList(ids []osm.ID) ([]*osm.Way, error) {
	out := make([]*osm.Way, 0, len(ids))
	for _, id := range ids {
		w, err := f.WayGet(id)
		if err != nil {
			if errors.Is(err, ErrMissing) {
				continue
			}
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// RelationGet resolves a relation, consulting the read-through cache first.
func (f *Facade) RelationGet(id osm.ID) (*osm.Relation, error) {
	if r, ok := f.relCache.Get(id); ok {
		return r, nil
	}
	r, err := f.store.GetRelation(id)
	if err != nil {
		return nil, err
	}
	f.relCache.Add(id, r)
	return r, nil
}

// RelationsUsingWay returns the ascending, deduplicated ids of relations
// referencing wayID.
func (f *Facade) RelationsUsingWay(id osm.ID) ([]osm.ID, error) {
	return f.store.RelationsUsingWay(id)
}

// WaysSet stores a way and invalidates its cache entry.
func (f *Facade) WaysSet(way *osm.Way) error {
	if err := f.store.SetWay(way); err != nil {
		return err
	}
	f.wayCache.Remove(way.ID)
	return nil
}

// RelationsSet stores a relation and invalidates its cache entry.
func (f *Facade) RelationsSet(rel *osm.Relation) error {
	if err := f.store.SetRelation(rel); err != nil {
		return err
	}
	f.relCache.Remove(rel.ID)
	return nil
}

// WayDelete removes a way and its cache entry.
func (f *Facade) WayDelete(id osm.ID) error {
	f.wayCache.Remove(id)
	return f.store.DeleteWay(id)
}

// RelationDelete removes a relation and its cache entry.
func (f *Facade) RelationDelete(id osm.ID) error {
	f.relCache.Remove(id)
	return f.store.DeleteRelation(id)
}

func (f *Facade) MarkPendingWay(id osm.ID) error      { return f.store.MarkPendingWay(id) }
func (f *Facade) MarkPendingRelation(id osm.ID) error { return f.store.MarkPendingRelation(id) }

// IteratePendingWays drains the pending way set in ascending order.
func (f *Facade) IteratePendingWays(fn func(id osm.ID) error) error {
	return f.store.IteratePendingWays(fn)
}

// IteratePendingRelations drains the pending relation set in ascending order.
func (f *Facade) IteratePendingRelations(fn func(id osm.ID) error) error {
	return f.store.IteratePendingRelations(fn)
}

// NodeCacheStats reports RAM node cache occupancy, if a node cache is
// configured.
func (f *Facade) NodeCacheStats() (nodecache.Stats, bool) {
	if f.nodes == nil {
		return nodecache.Stats{}, false
	}
	return f.nodes.Stats(), true
}

// FlatNodeBytes reports the flat node file's current size in bytes, if
// this Facade owns the writable Store (clones, which only hold a
// read-only Reader, report false).
func (f *Facade) FlatNodeBytes() (int64, bool) {
	if f.flatWriter == nil {
		return 0, false
	}
	n, err := f.flatWriter.Size()
	if err != nil {
		return 0, false
	}
	return n, true
}
