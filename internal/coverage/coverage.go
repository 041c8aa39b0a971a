// Package coverage implements the containment/intersection predicate the
// traversal uses to decide whether a subtree can be skipped, short-circuited,
// or must be recursed into with further checks.
package coverage

import "github.com/omniscale/tileseed/internal/types"

// Relation classifies how a candidate box relates to a target box.
type Relation int

const (
	// Disjoint means the two boxes do not overlap at all (interiors do not touch).
	Disjoint Relation = iota
	// Intersects means the boxes overlap but candidate is not fully inside target.
	Intersects
	// Contained means every point of candidate lies within target (boundary inclusive).
	Contained
)

func (r Relation) String() string {
	switch r {
	case Disjoint:
		return "DISJOINT"
	case Contained:
		return "CONTAINED"
	default:
		return "INTERSECTS"
	}
}

// Relate classifies candidate against target.
func Relate(target, candidate types.BBox) Relation {
	if contains(target, candidate) {
		return Contained
	}
	if intersects(target, candidate) {
		return Intersects
	}
	return Disjoint
}

// contains reports whether every point of b lies within a, boundary inclusive.
func contains(a, b types.BBox) bool {
	return b.MinX >= a.MinX && b.MinY >= a.MinY && b.MaxX <= a.MaxX && b.MaxY <= a.MaxY
}

// intersects reports whether the interiors of a and b overlap.
func intersects(a, b types.BBox) bool {
	return a.MinX < b.MaxX && a.MaxX > b.MinX && a.MinY < b.MaxY && a.MaxY > b.MinY
}
