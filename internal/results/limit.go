package results

import "strconv"

// Limit bounds how many rows are displayed. The zero Limit shows every row.
type Limit struct {
	n   int
	set bool
}

// NoLimit shows every fetched row.
func NoLimit() Limit { return Limit{} }

// LimitTo shows at most n rows. A limit of 0 shows no rows; negative values
// are treated as 0.
func LimitTo(n int) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{n: n, set: true}
}

// Get returns the row cap and whether one is set.
func (l Limit) Get() (int, bool) { return l.n, l.set }

func (l Limit) String() string {
	if !l.set {
		return "all"
	}
	return strconv.Itoa(l.n)
}
