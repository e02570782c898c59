package network

import "fmt"

// Loader translates source rows into entities in a Store.
//
// Every Load call is all-or-nothing: the whole batch is validated against the
// store and against itself before anything is registered, so a failing batch
// leaves the store exactly as it was.
type Loader struct {
	store *Store
}

// NewLoader creates a loader that populates store
func NewLoader(store *Store) *Loader {
	return &Loader{store: store}
}

// Store returns the store being populated
func (l *Loader) Store() *Store {
	return l.store
}

// LoadUnits creates one unit per row. Type code 0 is Primary, 1 is Secondary.
func (l *Loader) LoadUnits(rows []UnitRow) error {
	const op = "LoadUnits"
	if l.store.linked {
		return NewError(op).Entity("unit").Cause(ErrSealed).Err()
	}

	staged := make([]*Unit, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			return NewError(op).Entity("unit").Row(i + 1).Cause(ErrEmptyName).Err()
		}
		kind, err := ParseUnitKind(row.Type)
		if err != nil {
			return NewError(op).Unit(row.Name).Row(i + 1).Cause(err).Err()
		}
		if _, dup := seen[row.Name]; dup || l.store.HasUnit(row.Name) {
			return NewError(op).Unit(row.Name).Row(i + 1).Cause(ErrDuplicateEntity).Err()
		}
		seen[row.Name] = struct{}{}
		staged = append(staged, newUnit(row.Name, kind))
	}

	l.store.commitUnits(staged)
	return nil
}

// LoadStreams creates one stream per row. Rows without an id receive the next
// free ordinal.
func (l *Loader) LoadStreams(rows []StreamRow) error {
	const op = "LoadStreams"
	if l.store.linked {
		return NewError(op).Entity("stream").Cause(ErrSealed).Err()
	}

	staged := make([]*Stream, 0, len(rows))
	seenNames := make(map[string]struct{}, len(rows))
	seenIDs := make(map[int64]struct{}, len(rows))

	// explicit ids first, so generated ordinals never collide with them
	nextID := l.store.nextStreamID()
	for _, row := range rows {
		if row.ID >= nextID {
			nextID = row.ID + 1
		}
	}

	for i, row := range rows {
		if row.Name == "" {
			return NewError(op).Entity("stream").Row(i + 1).Cause(ErrEmptyName).Err()
		}
		if row.ID < 0 {
			return NewError(op).Stream(row.Name).Row(i + 1).
				Cause(fmt.Errorf("stream id %d: %w", row.ID, ErrInvalidID)).Err()
		}
		if _, dup := seenNames[row.Name]; dup || l.store.HasStream(row.Name) {
			return NewError(op).Stream(row.Name).Row(i + 1).Cause(ErrDuplicateEntity).Err()
		}
		id := row.ID
		if id == 0 {
			id = nextID
			nextID++
		}
		if _, dup := seenIDs[id]; dup {
			return NewError(op).Stream(row.Name).Row(i + 1).Cause(ErrDuplicateEntity).Err()
		}
		if _, dup := l.store.streamIDs[id]; dup {
			return NewError(op).Stream(row.Name).Row(i + 1).Cause(ErrDuplicateEntity).Err()
		}
		seenNames[row.Name] = struct{}{}
		seenIDs[id] = struct{}{}
		staged = append(staged, &Stream{ID: id, Name: row.Name})
	}

	l.store.commitStreams(staged)
	return nil
}

// LoadCapacities assigns capacities to already registered units. Units must
// be loaded first.
func (l *Loader) LoadCapacities(rows []CapacityRow) error {
	const op = "LoadCapacities"
	if l.store.linked {
		return NewError(op).Entity("capacity").Cause(ErrSealed).Err()
	}

	type assignment struct {
		unit  *Unit
		value int64
	}
	staged := make([]assignment, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		unit, ok := l.store.units[row.UnitName]
		if !ok {
			return NewError(op).Capacity(row.UnitName).Row(i + 1).Cause(ErrUnknownUnit).Err()
		}
		if row.Value < 0 {
			return NewError(op).Capacity(row.UnitName).Row(i + 1).Cause(ErrInvalidCapacity).Err()
		}
		if _, dup := seen[row.UnitName]; dup {
			return NewError(op).Capacity(row.UnitName).Row(i + 1).Cause(ErrDuplicateEntity).Err()
		}
		seen[row.UnitName] = struct{}{}
		staged = append(staged, assignment{unit: unit, value: row.Value})
	}

	for _, a := range staged {
		a.unit.capacity = a.value
		a.unit.hasCapacity = true
	}
	return nil
}
