package util

// Set is an unordered collection of unique comparable values
type Set[K comparable] map[K]struct{}

// SetOf builds a Set from the provided values
func SetOf[K comparable](values ...K) Set[K] {
	res := make(Set[K], len(values))
	for _, v := range values {
		res.Add(v)
	}
	return res
}

// Add inserts a value into the set
func (s Set[K]) Add(v K) {
	s[v] = struct{}{}
}

// Contains reports whether the value is a member of the set
func (s Set[K]) Contains(v K) bool {
	_, ok := s[v]
	return ok
}
