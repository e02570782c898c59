package network

import (
	"fmt"
)

// UnitKind tags a processing unit. It carries no behavior of its own.
type UnitKind int

const (
	// KindPrimary is a primary distillation unit (type code 0)
	KindPrimary UnitKind = iota
	// KindSecondary is a secondary processing unit (type code 1)
	KindSecondary
)

// String returns the string representation of a unit kind
func (k UnitKind) String() string {
	switch k {
	case KindPrimary:
		return "Primary"
	case KindSecondary:
		return "Secondary"
	default:
		return "Unknown"
	}
}

// ParseUnitKind converts a source type code into a UnitKind
func ParseUnitKind(code int) (UnitKind, error) {
	switch code {
	case 0:
		return KindPrimary, nil
	case 1:
		return KindSecondary, nil
	default:
		return 0, fmt.Errorf("type code %d: %w", code, ErrUnknownUnitKind)
	}
}

// Direction is the sense of a unit-stream association
type Direction int

const (
	// Output means the unit produces the stream (feed flag 0)
	Output Direction = iota
	// Input means the unit consumes the stream (feed flag 1)
	Input
)

func (d Direction) String() string {
	switch d {
	case Output:
		return "output"
	case Input:
		return "input"
	default:
		return "unknown"
	}
}

// ParseDirection converts a feed flag into a Direction
func ParseDirection(flag int) (Direction, error) {
	switch flag {
	case 0:
		return Output, nil
	case 1:
		return Input, nil
	default:
		return 0, fmt.Errorf("feed flag %d: %w", flag, ErrInvalidDirection)
	}
}

// Unit is a processing installation in the network.
type Unit struct {
	Name string
	Kind UnitKind

	capacity    int64
	hasCapacity bool

	// consumed and produced streams, keyed by stream name
	streamsIn  map[string]*Stream
	streamsOut map[string]*Stream

	// link order of the map keys above
	inOrder  []string
	outOrder []string
}

func newUnit(name string, kind UnitKind) *Unit {
	return &Unit{
		Name:       name,
		Kind:       kind,
		streamsIn:  make(map[string]*Stream),
		streamsOut: make(map[string]*Stream),
	}
}

// Capacity returns the unit's maximum throughput and whether it was set.
func (u *Unit) Capacity() (int64, bool) {
	return u.capacity, u.hasCapacity
}

// SetCapacity assigns the unit's maximum throughput. Capacity must be non-negative.
func (u *Unit) SetCapacity(value int64) error {
	if value < 0 {
		return fmt.Errorf("capacity %d: %w", value, ErrInvalidCapacity)
	}
	u.capacity = value
	u.hasCapacity = true
	return nil
}

// Input returns the consumed stream called name
func (u *Unit) Input(name string) (*Stream, bool) {
	s, ok := u.streamsIn[name]
	return s, ok
}

// Output returns the produced stream called name
func (u *Unit) Output(name string) (*Stream, bool) {
	s, ok := u.streamsOut[name]
	return s, ok
}

// InputNames returns the names of consumed streams in link order
func (u *Unit) InputNames() []string {
	return append([]string(nil), u.inOrder...)
}

// OutputNames returns the names of produced streams in link order
func (u *Unit) OutputNames() []string {
	return append([]string(nil), u.outOrder...)
}

func (u *Unit) attach(s *Stream, dir Direction) {
	switch dir {
	case Input:
		if _, ok := u.streamsIn[s.Name]; !ok {
			u.streamsIn[s.Name] = s
			u.inOrder = append(u.inOrder, s.Name)
		}
	case Output:
		if _, ok := u.streamsOut[s.Name]; !ok {
			u.streamsOut[s.Name] = s
			u.outOrder = append(u.outOrder, s.Name)
		}
	}
}

func (u *Unit) String() string {
	capacity := "unset"
	if u.hasCapacity {
		capacity = fmt.Sprintf("%d", u.capacity)
	}
	return fmt.Sprintf("Unit(name=%s, kind=%s, capacity=%s, in=%v, out=%v)",
		u.Name, u.Kind, capacity, u.inOrder, u.outOrder)
}

// Stream is a material flow between units.
type Stream struct {
	ID   int64
	Name string

	// unit names, ascending
	producers []string
	consumers []string
}

// Producers returns the names of units emitting this stream, ascending
func (s *Stream) Producers() []string {
	return append([]string(nil), s.producers...)
}

// Consumers returns the names of units receiving this stream, ascending
func (s *Stream) Consumers() []string {
	return append([]string(nil), s.consumers...)
}

// Orphaned reports whether no unit produces or consumes the stream
func (s *Stream) Orphaned() bool {
	return len(s.producers) == 0 && len(s.consumers) == 0
}

func (s *Stream) String() string {
	return fmt.Sprintf("Stream(id=%d, name=%s, producers=%v, consumers=%v)",
		s.ID, s.Name, s.producers, s.consumers)
}

// UnitRow is a unit record from the data source
type UnitRow struct {
	Name string `yaml:"name" json:"name"`
	Type int    `yaml:"type" json:"type"`
}

// StreamRow is a stream record from the data source. ID is optional; zero
// means the store assigns the load ordinal.
type StreamRow struct {
	ID   int64  `yaml:"id,omitempty" json:"id,omitempty"`
	Name string `yaml:"name" json:"name"`
}

// JunctionRow associates a unit with a stream
type JunctionRow struct {
	UnitName   string `yaml:"unit" json:"unit_name"`
	StreamName string `yaml:"stream" json:"stream_name"`
	FeedFlag   int    `yaml:"feed_flag" json:"feed_flag"`
}

// CapacityRow carries a unit's maximum throughput
type CapacityRow struct {
	UnitName string `yaml:"unit" json:"unit_name"`
	Value    int64  `yaml:"value" json:"value"`
}
