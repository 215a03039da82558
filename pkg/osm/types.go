// Package osm defines the primitive data shapes shared by every layer of
// the middle and the multipolygon assembler: nodes, ways, relations and
// their tags. These types carry no behavior of their own; they are the
// common currency readers, the middle and the assembler pass between them.
package osm

// ID is a 64-bit signed OSM object id. Ids are assigned by the data source
// and are unique only within a single object type (a node, a way and a
// relation may share the same numeric id).
type ID int64

// MemberType distinguishes the three kinds of relation member.
type MemberType uint8

const (
	MemberNode MemberType = iota
	MemberWay
	MemberRelation
)

func (t MemberType) String() string {
	switch t {
	case MemberNode:
		return "node"
	case MemberWay:
		return "way"
	case MemberRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Tags is an unordered key/value set. nil and empty are equivalent.
type Tags map[string]string

// Node is a point location. Valid is false for a location that has been
// deleted or was never set; callers must treat an invalid node as absent,
// never as (0, 0).
type Node struct {
	ID    ID
	Lon   float64
	Lat   float64
	Valid bool
}

// Way is an ordered list of node references plus its own tag set. The
// reference list may be empty and may dangle (reference a node that is
// not resolvable); neither condition invalidates the way record itself.
type Way struct {
	ID      ID
	Nodes   []ID
	Tags    Tags
	Pending bool
}

// Member is one entry in a relation's ordered member list.
type Member struct {
	Type MemberType
	Ref  ID
	Role string
}

// Relation is a tag set plus an ordered member list. No cycle detection is
// performed; a relation may reference missing members of any type.
type Relation struct {
	ID      ID
	Members []Member
	Tags    Tags
	Pending bool
}

// WayMembers returns the way ids referenced by the relation, in order,
// skipping node and relation members.
func (r *Relation) WayMembers() []ID {
	ids := make([]ID, 0, len(r.Members))
	for _, m := range r.Members {
		if m.Type == MemberWay {
			ids = append(ids, m.Ref)
		}
	}
	return ids
}
