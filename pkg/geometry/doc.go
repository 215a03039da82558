/*
Package geometry assembles OSM multipolygon relations into validated
polygons, and splits long ways into length-bounded chunks.

Built on github.com/paulmach/orb. The assembly pipeline:

	ways (resolved coords) ──► multilinestring (skip ways with <2 points)
	       │
	       ▼ line merge (join chains sharing an endpoint)
	maximal chains, closed or open
	       │
	       ▼ ring formation (closed, len>=4, area != 0)
	rings, sorted by |area| descending
	       │
	       ▼ hole classification (prepared point-in-ring containment)
	outer/inner assignment
	       │
	       ▼ assembly + orientation normalization + validity repair
	[]orb.Polygon

Relations whose member ways never close into a ring (route-style
relations with no area) fall back to AssembleLines, which returns the
merged multilinestring instead of an empty result.

Broken-ring repair is a ring-splitting pass: it detects a self-touching
(repeated) vertex, splits the ring there, and keeps the larger of the
two resulting simple loops, recursing until none remain touched or
unrepairable. Ring formation joins ways at shared endpoints, so the only
self-intersection it can produce is two loops meeting at a repeated
vertex, and splitting there recovers a simple ring without needing a
full geometry kernel.
*/
package geometry
