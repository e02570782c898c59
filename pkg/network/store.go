package network

// Store holds the canonical registries of units and streams for one load
// cycle. It is populated by a Loader, mutated once by a Linker, and read by
// analytics afterwards. A Store is not safe for concurrent mutation.
type Store struct {
	units     map[string]*Unit
	unitOrder []*Unit

	streams     map[string]*Stream
	streamOrder []*Stream
	streamIDs   map[int64]string

	linked bool
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		units:     make(map[string]*Unit),
		streams:   make(map[string]*Stream),
		streamIDs: make(map[int64]string),
	}
}

// GetUnit returns the unit registered under name
func (s *Store) GetUnit(name string) (*Unit, error) {
	u, ok := s.units[name]
	if !ok {
		return nil, NewError("get").Unit(name).Cause(ErrUnknownUnit).Err()
	}
	return u, nil
}

// GetStream returns the stream registered under name
func (s *Store) GetStream(name string) (*Stream, error) {
	st, ok := s.streams[name]
	if !ok {
		return nil, NewError("get").Stream(name).Cause(ErrDanglingReference).Err()
	}
	return st, nil
}

// HasUnit reports whether a unit named name is registered
func (s *Store) HasUnit(name string) bool {
	_, ok := s.units[name]
	return ok
}

// HasStream reports whether a stream named name is registered
func (s *Store) HasStream(name string) bool {
	_, ok := s.streams[name]
	return ok
}

// Units returns all units in insertion order
func (s *Store) Units() []*Unit {
	return append([]*Unit(nil), s.unitOrder...)
}

// Streams returns all streams in insertion order
func (s *Store) Streams() []*Stream {
	return append([]*Stream(nil), s.streamOrder...)
}

// UnitCount returns the number of registered units
func (s *Store) UnitCount() int {
	return len(s.unitOrder)
}

// StreamCount returns the number of registered streams
func (s *Store) StreamCount() int {
	return len(s.streamOrder)
}

// Linked reports whether relationship linking has completed. A linked store
// rejects further loads.
func (s *Store) Linked() bool {
	return s.linked
}

// commitUnits registers pre-validated units. Callers must have checked names.
func (s *Store) commitUnits(units []*Unit) {
	for _, u := range units {
		s.units[u.Name] = u
		s.unitOrder = append(s.unitOrder, u)
	}
}

// commitStreams registers pre-validated streams. Callers must have checked
// names and ids.
func (s *Store) commitStreams(streams []*Stream) {
	for _, st := range streams {
		s.streams[st.Name] = st
		s.streamIDs[st.ID] = st.Name
		s.streamOrder = append(s.streamOrder, st)
	}
}

func (s *Store) nextStreamID() int64 {
	var max int64
	for id := range s.streamIDs {
		if id > max {
			max = id
		}
	}
	return max + 1
}
