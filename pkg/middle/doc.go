/*
Package middle implements the way/relation persistent store and the
façade the output stage uses to query nodes, ways and relations.

BoltStore is a go.etcd.io/bbolt database with five buckets:

	ways              way id -> JSON way record
	ways-pending      way id -> empty value, marks a way for stage-2 reprocessing
	relations         relation id -> JSON relation record
	relations-pending relation id -> empty value
	way-relations     way id -> (bucket of relation ids), the reverse index

Keys are the object id encoded as a sign-flipped 8-byte big-endian
integer, so bbolt's natural byte-order iteration matches ascending
signed-id order, the same offset-binary trick pkg/idtracker uses for
its bitmap.

Facade composes a BoltStore with a pkg/nodecache.Cache, a pkg/flatnode
store/reader and an LRU read-through cache for way/relation lookups. A
cloned Facade (Clone) shares the BoltStore handle (bbolt transactions
are safe for concurrent readers) but owns an independent LRU cache and
flatnode.Reader, so stage-2 workers can run without contending on each
other's caches.
*/
package middle
