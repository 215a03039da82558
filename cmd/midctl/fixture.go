package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/osm2pgsql/mid/pkg/osm"
)

// fixture is the on-disk JSON shape midctl loads for both the "run" and
// "assemble" subcommands: a flat dump of nodes, ways and relations, not
// any particular wire format a real reader would produce.
type fixture struct {
	Nodes []fixtureNode `json:"nodes"`
	Ways  []fixtureWay  `json:"ways"`
	Rels  []fixtureRel  `json:"relations"`
}

type fixtureNode struct {
	ID  osm.ID  `json:"id"`
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type fixtureWay struct {
	ID    osm.ID            `json:"id"`
	Nodes []osm.ID          `json:"nodes"`
	Tags  map[string]string `json:"tags,omitempty"`
}

type fixtureMember struct {
	Type string `json:"type"`
	Ref  osm.ID `json:"ref"`
	Role string `json:"role,omitempty"`
}

type fixtureRel struct {
	ID      osm.ID            `json:"id"`
	Members []fixtureMember   `json:"members"`
	Tags    map[string]string `json:"tags,omitempty"`
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

func (r fixtureRel) toRelation() *osm.Relation {
	members := make([]osm.Member, 0, len(r.Members))
	for _, m := range r.Members {
		members = append(members, osm.Member{
			Type: memberTypeFromString(m.Type),
			Ref:  m.Ref,
			Role: m.Role,
		})
	}
	return &osm.Relation{ID: r.ID, Members: members, Tags: osm.Tags(r.Tags)}
}

func memberTypeFromString(s string) osm.MemberType {
	switch s {
	case "way":
		return osm.MemberWay
	case "relation":
		return osm.MemberRelation
	default:
		return osm.MemberNode
	}
}
