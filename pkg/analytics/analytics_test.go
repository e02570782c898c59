package analytics

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-flownet/pkg/network"
)

func setupEngine(t *testing.T, units []network.UnitRow, streams []string, junctions []network.JunctionRow) *Engine {
	t.Helper()

	store := network.NewStore()
	loader := network.NewLoader(store)
	require.NoError(t, loader.LoadUnits(units))

	rows := make([]network.StreamRow, len(streams))
	for i, name := range streams {
		rows[i] = network.StreamRow{Name: name}
	}
	require.NoError(t, loader.LoadStreams(rows))

	_, err := network.NewLinker(store).Link(junctions)
	require.NoError(t, err)

	engine, err := New(store)
	require.NoError(t, err)
	return engine
}

func junction(stream, unit string, flag int) network.JunctionRow {
	return network.JunctionRow{StreamName: stream, UnitName: unit, FeedFlag: flag}
}

func TestNew_RequiresLinkedStore(t *testing.T) {
	_, err := New(network.NewStore())
	assert.ErrorIs(t, err, network.ErrNotLinked)

	_, err = New(nil)
	assert.ErrorIs(t, err, network.ErrNotLinked)
}

func TestScenarioA(t *testing.T) {
	engine := setupEngine(t,
		[]network.UnitRow{{Name: "U1", Type: 0}, {Name: "U2", Type: 1}},
		[]string{"S1", "S2", "S3"},
		[]network.JunctionRow{junction("S1", "U1", 0), junction("S1", "U2", 1), junction("S2", "U1", 1)},
	)

	assert.Equal(t, []OrphanStream{{ID: 3, Name: "S3"}}, engine.Orphans())
	assert.Equal(t, []InputPair{{Unit: "U1", Stream: "S2"}, {Unit: "U2", Stream: "S1"}}, engine.UnitInputs())
	assert.Empty(t, engine.FanOut())
}

func TestScenarioB(t *testing.T) {
	engine := setupEngine(t,
		[]network.UnitRow{{Name: "U3"}, {Name: "U1"}, {Name: "U2"}},
		[]string{"S1"},
		[]network.JunctionRow{junction("S1", "U1", 0), junction("S1", "U3", 1), junction("S1", "U2", 1)},
	)

	assert.Equal(t, map[string][]string{"S1": {"U2", "U3"}}, engine.FanOut())
	assert.Empty(t, engine.Orphans())
}

func TestUnitInputs_Ordering(t *testing.T) {
	engine := setupEngine(t,
		[]network.UnitRow{{Name: "B"}, {Name: "A"}},
		[]string{"s3", "s1", "s2"},
		[]network.JunctionRow{
			junction("s3", "B", 1), junction("s1", "B", 1),
			junction("s2", "A", 1), junction("s3", "A", 1),
			junction("s1", "A", 0),
		},
	)

	want := []InputPair{
		{Unit: "A", Stream: "s2"}, {Unit: "A", Stream: "s3"},
		{Unit: "B", Stream: "s1"}, {Unit: "B", Stream: "s3"},
	}
	assert.Equal(t, want, engine.UnitInputs())
}

func TestOrphans_LoadOrder(t *testing.T) {
	engine := setupEngine(t,
		[]network.UnitRow{{Name: "U1"}},
		[]string{"Z", "A", "M", "B"},
		[]network.JunctionRow{junction("A", "U1", 0)},
	)

	assert.Equal(t, []OrphanStream{{ID: 1, Name: "Z"}, {ID: 3, Name: "M"}, {ID: 4, Name: "B"}}, engine.Orphans())
}

func TestFanOut_IsACopy(t *testing.T) {
	engine := setupEngine(t,
		[]network.UnitRow{{Name: "U1"}, {Name: "U2"}},
		[]string{"S1"},
		[]network.JunctionRow{junction("S1", "U1", 1), junction("S1", "U2", 1)},
	)

	first := engine.FanOut()
	first["S1"][0] = "tampered"
	assert.Equal(t, []string{"U1", "U2"}, engine.FanOut()["S1"])
}

func TestUnitSheets_Ragged(t *testing.T) {
	engine := setupEngine(t,
		[]network.UnitRow{{Name: "U1"}, {Name: "U2"}},
		[]string{"S1", "S2", "S3"},
		[]network.JunctionRow{
			junction("S1", "U1", 1), junction("S2", "U1", 1), junction("S3", "U1", 0),
		},
	)

	sheets := engine.UnitSheets()
	require.Len(t, sheets, 2)

	assert.Equal(t, "U1", sheets[0].Unit)
	assert.Equal(t, []string{"S1", "S2"}, sheets[0].Inputs)
	assert.Equal(t, []string{"S3"}, sheets[0].Outputs)
	assert.Equal(t, [][2]string{{"S1", "S3"}, {"S2", ""}}, sheets[0].Rows())

	assert.Equal(t, "U2", sheets[1].Unit)
	assert.Empty(t, sheets[1].Rows())
}

func TestUnitSheet_RowsOutputsLonger(t *testing.T) {
	s := UnitSheet{Unit: "U", Inputs: []string{"a"}, Outputs: []string{"x", "y", "z"}}
	assert.Equal(t, [][2]string{{"a", "x"}, {"", "y"}, {"", "z"}}, s.Rows())
}

func TestReport(t *testing.T) {
	engine := setupEngine(t,
		[]network.UnitRow{{Name: "U1"}, {Name: "U2"}, {Name: "U3"}},
		[]string{"S2", "S1", "S0"},
		[]network.JunctionRow{
			junction("S1", "U1", 1), junction("S1", "U2", 1),
			junction("S2", "U2", 1), junction("S2", "U3", 1),
		},
	)

	r := engine.Report()
	assert.Equal(t, 3, r.UnitCount)
	assert.Equal(t, 3, r.StreamCount)
	assert.Equal(t, []string{"S1", "S2"}, r.FanOutStreams())
	assert.Len(t, r.Orphans, 1)
	assert.Len(t, r.Sheets, 3)
	assert.Len(t, r.Inputs, 4)
}

func TestReport_Idempotent(t *testing.T) {
	engine := setupEngine(t,
		[]network.UnitRow{{Name: "U1"}, {Name: "U2"}},
		[]string{"S1", "S2", "S3"},
		[]network.JunctionRow{junction("S1", "U1", 0), junction("S1", "U2", 1), junction("S2", "U1", 1)},
	)

	assert.Equal(t, engine.Report(), engine.Report())
}

func randomEngine(seed int64) (*Engine, error) {
	r := rand.New(rand.NewSource(seed))
	store := network.NewStore()
	loader := network.NewLoader(store)

	units := make([]network.UnitRow, 1+r.Intn(6))
	for i := range units {
		units[i] = network.UnitRow{Name: fmt.Sprintf("U%d", i), Type: r.Intn(2)}
	}
	streams := make([]network.StreamRow, 1+r.Intn(10))
	for i := range streams {
		streams[i] = network.StreamRow{Name: fmt.Sprintf("S%d", i)}
	}
	if err := loader.LoadUnits(units); err != nil {
		return nil, err
	}
	if err := loader.LoadStreams(streams); err != nil {
		return nil, err
	}

	var rows []network.JunctionRow
	for _, s := range streams {
		for _, u := range units {
			if flag := r.Intn(3); flag < 2 {
				rows = append(rows, junction(s.Name, u.Name, flag))
			}
		}
	}
	if _, err := network.NewLinker(store).Link(rows); err != nil {
		return nil, err
	}
	return New(store)
}

func TestAnalyticsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("fan-out never includes a stream with one consumer or fewer", prop.ForAll(
		func(seed int64) bool {
			engine, err := randomEngine(seed)
			if err != nil {
				return false
			}
			for _, consumers := range engine.FanOut() {
				if len(consumers) <= 1 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("unit inputs sorted by unit then stream", prop.ForAll(
		func(seed int64) bool {
			engine, err := randomEngine(seed)
			if err != nil {
				return false
			}
			pairs := engine.UnitInputs()
			return sort.SliceIsSorted(pairs, func(i, j int) bool {
				if pairs[i].Unit != pairs[j].Unit {
					return pairs[i].Unit < pairs[j].Unit
				}
				return pairs[i].Stream < pairs[j].Stream
			})
		},
		gen.Int64(),
	))

	properties.Property("queries are idempotent", prop.ForAll(
		func(seed int64) bool {
			engine, err := randomEngine(seed)
			if err != nil {
				return false
			}
			a, b := engine.Report(), engine.Report()
			return reflect.DeepEqual(a, b)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
