package geom

import (
	"math"
	"sort"
)

// Distribute places n points along the path.
//
// Every segment start is occupied before any segment gets a second point,
// so shape corners always carry a marcher. Remaining points are shared
// out by segment length and spaced evenly within each segment. The last
// segment of an open path also covers its end point, so the path is
// filled end to end. A closed path ends where it starts and does not.
// With fewer points than segments, the leading segment starts are used.
func Distribute(p Path, n int) []Point {
	if n <= 0 || len(p.Segments) == 0 {
		return []Point{}
	}

	segs := p.Segments
	if n < len(segs) {
		out := make([]Point, n)
		for i := range out {
			out[i] = segs[i].Start()
		}
		return out
	}

	last := len(segs) - 1
	closed := segs[last].End() == segs[0].Start()

	counts := allocate(segs, n)
	out := make([]Point, 0, n)
	for i, s := range segs {
		k := counts[i]
		slots := k
		if i == last && !closed {
			slots = k - 1
		}
		var spacing float64
		if slots > 0 {
			spacing = s.Length() / float64(slots)
		}
		for j := 0; j < k; j++ {
			out = append(out, s.PointAt(spacing*float64(j)))
		}
	}
	return out
}

// allocate gives each segment one point and splits the rest by length
// using largest remainders, so the counts always sum to n.
func allocate(segs []Segment, n int) []int {
	counts := make([]int, len(segs))
	lengths := make([]float64, len(segs))
	var total float64
	for i, s := range segs {
		counts[i] = 1
		lengths[i] = s.Length()
		total += lengths[i]
	}

	extra := n - len(segs)
	if extra == 0 {
		return counts
	}
	if total == 0 {
		counts[len(counts)-1] += extra
		return counts
	}

	type share struct {
		index int
		frac  float64
	}
	shares := make([]share, len(segs))
	given := 0
	for i, l := range lengths {
		exact := l / total * float64(extra)
		whole := math.Floor(exact)
		counts[i] += int(whole)
		given += int(whole)
		shares[i] = share{index: i, frac: exact - whole}
	}

	sort.SliceStable(shares, func(a, b int) bool {
		return shares[a].frac > shares[b].frac
	})
	for i := 0; i < extra-given; i++ {
		counts[shares[i%len(shares)].index]++
	}
	return counts
}
