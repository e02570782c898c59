package network

import (
	"fmt"
	"sort"
)

// LinkStats summarizes a completed link
type LinkStats struct {
	Outputs int // junctions where a unit produces a stream
	Inputs  int // junctions where a unit consumes a stream
}

// Linker wires both sides of the unit-stream relation.
type Linker struct {
	store *Store
}

// NewLinker creates a linker over store
func NewLinker(store *Store) *Linker {
	return &Linker{store: store}
}

type stagedJunction struct {
	unit string
	dir  Direction
}

// Link builds stream producer/consumer lists from junction rows, then derives
// each unit's input and output maps from those lists. Linking is
// all-or-nothing and happens once per store; afterwards the store is sealed
// against further loads.
func (l *Linker) Link(rows []JunctionRow) (LinkStats, error) {
	const op = "Link"
	var stats LinkStats

	if l.store.linked {
		return stats, NewError(op).Junction().Cause(ErrAlreadyLinked).Err()
	}

	byStream := make(map[string][]stagedJunction)
	seen := make(map[[2]string]struct{}, len(rows))
	for i, row := range rows {
		if !l.store.HasStream(row.StreamName) {
			return stats, NewError(op).Stream(row.StreamName).Row(i + 1).Cause(ErrDanglingReference).Err()
		}
		if !l.store.HasUnit(row.UnitName) {
			return stats, NewError(op).Unit(row.UnitName).Row(i + 1).Cause(ErrDanglingReference).Err()
		}
		dir, err := ParseDirection(row.FeedFlag)
		if err != nil {
			return stats, NewError(op).Junction().Row(i + 1).Cause(err).Err()
		}
		key := [2]string{row.StreamName, row.UnitName}
		if _, dup := seen[key]; dup {
			return stats, NewError(op).Junction().Row(i + 1).
				Cause(fmt.Errorf("%s/%s: %w", row.StreamName, row.UnitName, ErrDuplicateJunction)).Err()
		}
		seen[key] = struct{}{}
		byStream[row.StreamName] = append(byStream[row.StreamName], stagedJunction{unit: row.UnitName, dir: dir})
	}

	// Stream side, in registry order. Rows are sorted by unit name so the
	// resulting lists are reproducible regardless of source order.
	for _, st := range l.store.streamOrder {
		group := byStream[st.Name]
		sort.Slice(group, func(i, j int) bool { return group[i].unit < group[j].unit })
		for _, j := range group {
			if j.dir == Output {
				st.producers = append(st.producers, j.unit)
				stats.Outputs++
			} else {
				st.consumers = append(st.consumers, j.unit)
				stats.Inputs++
			}
		}
	}

	deriveUnitLinks(l.store)

	if err := VerifySymmetry(l.store); err != nil {
		resetLinks(l.store)
		return LinkStats{}, NewError(op).Junction().Cause(err).Err()
	}

	l.store.linked = true
	return stats, nil
}

// deriveUnitLinks populates unit maps purely from stream lists.
func deriveUnitLinks(s *Store) {
	for _, st := range s.streamOrder {
		for _, name := range st.producers {
			s.units[name].attach(st, Output)
		}
		for _, name := range st.consumers {
			s.units[name].attach(st, Input)
		}
	}
}

func resetLinks(s *Store) {
	for _, st := range s.streamOrder {
		st.producers = nil
		st.consumers = nil
	}
	for _, u := range s.unitOrder {
		u.streamsIn = make(map[string]*Stream)
		u.streamsOut = make(map[string]*Stream)
		u.inOrder = nil
		u.outOrder = nil
	}
}

// VerifySymmetry checks that unit maps and stream lists describe the same
// relation: S is in U.streamsIn exactly when U is in S.consumers, and S is in
// U.streamsOut exactly when U is in S.producers. It also checks that no unit
// is listed twice for a stream.
func VerifySymmetry(s *Store) error {
	for _, st := range s.streamOrder {
		listed := make(map[string]struct{}, len(st.producers)+len(st.consumers))
		for _, name := range st.producers {
			if err := checkSide(s, st, name, listed, func(u *Unit) map[string]*Stream { return u.streamsOut }); err != nil {
				return err
			}
		}
		for _, name := range st.consumers {
			if err := checkSide(s, st, name, listed, func(u *Unit) map[string]*Stream { return u.streamsIn }); err != nil {
				return err
			}
		}
	}

	for _, u := range s.unitOrder {
		for name, st := range u.streamsIn {
			if s.streams[name] != st || !contains(st.consumers, u.Name) {
				return fmt.Errorf("unit %q input %q has no matching consumer entry: %w", u.Name, name, ErrAsymmetricLink)
			}
		}
		for name, st := range u.streamsOut {
			if s.streams[name] != st || !contains(st.producers, u.Name) {
				return fmt.Errorf("unit %q output %q has no matching producer entry: %w", u.Name, name, ErrAsymmetricLink)
			}
		}
	}
	return nil
}

func checkSide(s *Store, st *Stream, name string, listed map[string]struct{}, side func(*Unit) map[string]*Stream) error {
	if _, dup := listed[name]; dup {
		return fmt.Errorf("stream %q lists unit %q more than once: %w", st.Name, name, ErrAsymmetricLink)
	}
	listed[name] = struct{}{}
	u, ok := s.units[name]
	if !ok {
		return fmt.Errorf("stream %q references unit %q: %w", st.Name, name, ErrDanglingReference)
	}
	if side(u)[st.Name] != st {
		return fmt.Errorf("stream %q lists unit %q without a matching unit entry: %w", st.Name, name, ErrAsymmetricLink)
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
