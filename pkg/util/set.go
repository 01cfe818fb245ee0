package util

// Set holds unique comparable values. It is not safe for concurrent use;
// callers guard it with their own lock
type Set[K comparable] map[K]struct{}

// SetOf builds a Set from the given values, dropping duplicates
func SetOf[K comparable](values ...K) Set[K] {
	s := make(Set[K], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v, reporting whether it was not already present
func (s Set[K]) Add(v K) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Remove deletes v, reporting whether it was present
func (s Set[K]) Remove(v K) bool {
	if _, ok := s[v]; !ok {
		return false
	}
	delete(s, v)
	return true
}

// Contains reports whether v is in the set
func (s Set[K]) Contains(v K) bool {
	_, ok := s[v]
	return ok
}

// Values returns a snapshot of the members in no particular order
func (s Set[K]) Values() []K {
	res := make([]K, 0, len(s))
	for v := range s {
		res = append(res, v)
	}
	return res
}
