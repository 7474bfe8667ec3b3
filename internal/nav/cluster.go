package nav

import "github.com/go-gl/mathgl/mgl64"

// Cluster groups low into connected components over their edges and creates one
// high-level primitive per component through newHigh, placed at the component's
// local centroid. Members get the new cluster as parent. Each new cluster is then
// connected to the live clusters of members' neighbours outside low.
func Cluster(low []*Primitive, newHigh func(local mgl64.Vec3) *Primitive) []*Primitive {
	inSet := make(map[*Primitive]bool, len(low))
	for _, p := range low {
		inSet[p] = true
	}

	var high []*Primitive
	seen := make(map[*Primitive]bool, len(low))
	for _, root := range low {
		if seen[root] {
			continue
		}
		component := []*Primitive{root}
		seen[root] = true
		for i := 0; i < len(component); i++ {
			for _, e := range component[i].edges {
				if inSet[e.To] && !seen[e.To] {
					seen[e.To] = true
					component = append(component, e.To)
				}
			}
		}

		var center mgl64.Vec3
		for _, p := range component {
			center = center.Add(p.local)
		}
		center = center.Mul(1 / float64(len(component)))

		h := newHigh(center)
		for _, p := range component {
			p.SetParent(h)
		}
		high = append(high, h)
	}

	for _, p := range low {
		for _, e := range p.edges {
			if inSet[e.To] {
				continue
			}
			other := e.To.parent
			if other == nil || !other.Alive() {
				continue
			}
			Connect(p.parent, other, Distance(p.parent.local, other.local))
		}
	}
	return high
}
