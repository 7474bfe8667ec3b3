package nav

// Candidate is the closest primitive one domain found for a point.
type Candidate struct {
	Primitive *Primitive
	DistSq    float64
}

// Better reports whether c should replace best in a closest-primitive scan:
// strictly closer, or equally close with a lower ID. Within one domain this
// makes the result independent of iteration order.
func (c Candidate) Better(best Candidate) bool {
	if best.Primitive == nil {
		return true
	}
	if c.DistSq != best.DistSq {
		return c.DistSq < best.DistSq
	}
	return c.Primitive.ID() < best.Primitive.ID()
}

// Nearest folds per-domain results in scan order. A later candidate replaces the
// current one only when strictly closer, so the first domain scanned wins ties.
func Nearest(results ...Result) (Candidate, bool) {
	var best Candidate
	found := false
	for _, r := range results {
		if !r.OK {
			continue
		}
		if !found || r.Candidate.DistSq < best.DistSq {
			best = r.Candidate
			found = true
		}
	}
	return best, found
}

// Result is an optional Candidate.
type Result struct {
	Candidate
	OK bool
}

// Some wraps a found candidate.
func Some(c Candidate, ok bool) Result {
	return Result{Candidate: c, OK: ok}
}
