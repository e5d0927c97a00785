package graph

// Sequence is an ordered capture path. Its member list is immutable.
type Sequence struct {
	key   string
	keys  []string
	index map[string]int
}

// NewSequence copies keys. A key listed twice keeps its first position.
func NewSequence(key string, keys []string) *Sequence {
	s := &Sequence{
		key:   key,
		keys:  append([]string(nil), keys...),
		index: make(map[string]int, len(keys)),
	}
	for i, k := range s.keys {
		if _, ok := s.index[k]; !ok {
			s.index[k] = i
		}
	}
	return s
}

func (s *Sequence) Key() string { return s.key }
func (s *Sequence) Len() int    { return len(s.keys) }

// Keys returns a copy of the ordered member keys.
func (s *Sequence) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s *Sequence) Index(key string) (int, bool) {
	i, ok := s.index[key]
	return i, ok
}

func (s *Sequence) FindNextKey(key string) (string, bool) {
	i, ok := s.index[key]
	if !ok || i+1 >= len(s.keys) {
		return "", false
	}
	return s.keys[i+1], true
}

func (s *Sequence) FindPrevKey(key string) (string, bool) {
	i, ok := s.index[key]
	if !ok || i == 0 {
		return "", false
	}
	return s.keys[i-1], true
}
