// Factory functions for creating geometry instances from a profile.
package kinematics

import "fmt"

// NewGeometry returns the geometry for the given archetype and bed.
func NewGeometry(a Archetype, bed Bed) (Geometry, error) {
	switch a {
	case CoreXY:
		return NewCartesianGeometry(bed), nil
	case Bedslinger:
		return NewBedslingerGeometry(bed), nil
	case Delta:
		return NewDeltaGeometry(bed), nil
	default:
		return nil, fmt.Errorf("unsupported archetype: %d", int(a))
	}
}

// MustGeometry is like NewGeometry but falls back to CoreXY for an unknown
// archetype. Profiles only carry parsed archetypes, so the fallback is never
// reached from decoded input.
func MustGeometry(a Archetype, bed Bed) Geometry {
	g, err := NewGeometry(a, bed)
	if err != nil {
		return NewCartesianGeometry(bed)
	}
	return g
}
