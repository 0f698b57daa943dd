package model

// Store indexes live instances by the id of their host node.
type Store struct {
	byID map[string]*Instance
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Instance)}
}

// Put indexes in under id. Empty ids are ignored.
func (s *Store) Put(id string, in *Instance) {
	if id == "" || in == nil {
		return
	}
	s.byID[id] = in
}

// Get returns the instance for id, or nil.
func (s *Store) Get(id string) *Instance {
	return s.byID[id]
}

// Len returns the number of indexed instances.
func (s *Store) Len() int { return len(s.byID) }
