package beam

import (
	"math"
	"sort"

	"github.com/archiforge/cadrecon/pkg/geomx"
)

// JunctionKind classifies an IntersectionInfo by its arm count.
type JunctionKind int

const (
	JunctionL JunctionKind = iota
	JunctionT
	JunctionC
)

func (k JunctionKind) String() string {
	switch k {
	case JunctionL:
		return "L"
	case JunctionT:
		return "T"
	case JunctionC:
		return "C"
	default:
		return "?"
	}
}

// IntersectionInfo describes the rectangular region where two or more
// non-parallel beams' AABBs overlap.
type IntersectionInfo struct {
	Bounds        geomx.Bounds
	Center        geomx.Point
	Junction      JunctionKind
	HasStemAngle  bool
	StemAngle     int // one of 0, 90, 180, 270; valid only when HasStemAngle
	MemberIndices []int
}

const (
	angleEast  = 0
	angleNorth = 90
	angleWest  = 180
	angleSouth = 270
)

// detectJunctions finds every perpendicular-beam overlap, clusters nearby
// candidates, and classifies each cluster as L, T, or C.
func detectJunctions(frags []GeomFragment, cfg GeomConfigLike) []IntersectionInfo {
	type candidate struct {
		bounds  geomx.Bounds
		members [2]int
	}
	var candidates []candidate
	for i := 0; i < len(frags); i++ {
		for j := i + 1; j < len(frags); j++ {
			a, b := frags[i].OBB, frags[j].OBB
			if math.Abs(a.U.Dot(b.U)) > 0.1 {
				continue
			}
			ab, bb := a.Bounds(), b.Bounds()
			if !ab.Overlaps(bb) {
				continue
			}
			overlap := geomx.Bounds{
				MinX: math.Max(ab.MinX, bb.MinX), MinY: math.Max(ab.MinY, bb.MinY),
				MaxX: math.Min(ab.MaxX, bb.MaxX), MaxY: math.Min(ab.MaxY, bb.MaxY),
			}
			candidates = append(candidates, candidate{bounds: overlap, members: [2]int{frags[i].Index, frags[j].Index}})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	uf := newUnionFind(len(candidates))
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[i].bounds.Center().Dist(candidates[j].bounds.Center()) <= cfg.ClusterGrid {
				uf.Union(i, j)
			}
		}
	}
	groups := uf.Groups()
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var infos []IntersectionInfo
	for _, root := range keys {
		members := groups[root]
		sort.Ints(members)
		clusterBounds := geomx.EmptyBounds()
		memberSet := map[int]bool{}
		for _, m := range members {
			clusterBounds = clusterBounds.Union(candidates[m].bounds)
			memberSet[candidates[m].members[0]] = true
			memberSet[candidates[m].members[1]] = true
		}
		memberIndices := make([]int, 0, len(memberSet))
		for idx := range memberSet {
			memberIndices = append(memberIndices, idx)
		}
		sort.Ints(memberIndices)

		dirs := armDirections(frags, memberIndices, clusterBounds, cfg.ArmExtentTolerance)
		info, ok := classifyJunction(clusterBounds, dirs, memberIndices)
		if ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// armDirections returns the set of cardinal directions (0/90/180/270) in
// which any member beam extends outside clusterBounds by more than its
// half-extent plus tol.
func armDirections(frags []GeomFragment, memberIndices []int, clusterBounds geomx.Bounds, tol float64) map[int]bool {
	byIndex := map[int]GeomFragment{}
	for _, f := range frags {
		byIndex[f.Index] = f
	}
	dirs := map[int]bool{}
	for _, idx := range memberIndices {
		f, ok := byIndex[idx]
		if !ok {
			continue
		}
		o := f.OBB
		p0 := o.PointAtT(o.MinT)
		p1 := o.PointAtT(o.MaxT)
		horizontal := math.Abs(o.U.X) > math.Abs(o.U.Y)
		for _, p := range []geomx.Point{p0, p1} {
			if horizontal {
				if p.X > clusterBounds.MaxX+tol {
					dirs[angleEast] = true
				}
				if p.X < clusterBounds.MinX-tol {
					dirs[angleWest] = true
				}
			} else {
				if p.Y > clusterBounds.MaxY+tol {
					dirs[angleNorth] = true
				}
				if p.Y < clusterBounds.MinY-tol {
					dirs[angleSouth] = true
				}
			}
		}
	}
	return dirs
}

func classifyJunction(bounds geomx.Bounds, dirs map[int]bool, members []int) (IntersectionInfo, bool) {
	count := len(dirs)
	info := IntersectionInfo{
		Bounds:        bounds,
		Center:        bounds.Center(),
		MemberIndices: members,
	}
	switch count {
	case 4:
		info.Junction = JunctionC
	case 3:
		info.Junction = JunctionT
		for _, a := range []int{angleEast, angleNorth, angleWest, angleSouth} {
			if !dirs[a] {
				info.StemAngle = a
				info.HasStemAngle = true
			}
		}
	case 2:
		info.Junction = JunctionL
	default:
		return IntersectionInfo{}, false
	}
	return info, true
}
