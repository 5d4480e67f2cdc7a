package derived

import (
	"fmt"
	"log"
	"sort"

	"icrhDiag/metrics"
	"icrhDiag/record"
	"icrhDiag/schema"
	"icrhDiag/shot"
)

//Series is one derived quantity on the time axis of the record it was computed from
type Series struct {
	Name   string
	Unit   string
	Time   []float64
	Values []float64
}

//Computation derives one series from the channels of a record
type Computation struct {
	//Channels the computation reads, in argument order
	Channels []string
	Unit     string
	compute  func(rec *record.RawRecord, channels [][]float64) ([]float64, error)
}

//Applies is true if rec carries every channel the computation reads
func (c Computation) Applies(rec *record.RawRecord) bool {
	for _, ch := range c.Channels {
		if rec.ColumnIndex(ch) < 0 {
			return false
		}
	}
	return true
}

func vswrOf(_ *record.RawRecord, ch [][]float64) ([]float64, error) {
	return VSWR(ch[0], ch[1])
}

//relativePhaseOf uses the raw phase divisor unless the record has already been scaled to degrees
func relativePhaseOf(rec *record.RawRecord, ch [][]float64) ([]float64, error) {
	divisor := float64(schema.PhaseUnitsPerDegree)
	if rec.Scaled {
		divisor = 1
	}
	return RelativePhase(ch[0], ch[1], ch[2], divisor)
}

//availableSeries hand edited list of the derived quantities. If you add a new quantity add it to the list
var availableSeries = map[string]Computation{
	"vswr_left":        {Channels: []string{"PiG", "PrG"}, compute: vswrOf},
	"vswr_right":       {Channels: []string{"PiD", "PrD"}, compute: vswrOf},
	"relative_phase_a": {Channels: []string{"Ph4", "Ph1", "Ph6"}, Unit: "deg", compute: relativePhaseOf},
	"relative_phase_b": {Channels: []string{"Ph5", "Ph1", "Ph7"}, Unit: "deg", compute: relativePhaseOf},
}

//GetAvailableSeries returns the sorted names of all derived quantities
func GetAvailableSeries() []string {
	names := make([]string, 0, len(availableSeries))
	for key := range availableSeries {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

//GetComputation returns the computation registered for name
func GetComputation(name string) (Computation, error) {
	c, ok := availableSeries[name]
	if !ok {
		return Computation{}, fmt.Errorf("unknown derived series %q", name)
	}
	return c, nil
}

//Compute derives the series name from rec
func Compute(name string, rec *record.RawRecord) (*Series, error) {
	c, err := GetComputation(name)
	if err != nil {
		return nil, err
	}
	channels := make([][]float64, len(c.Channels))
	for i, ch := range c.Channels {
		if channels[i], err = rec.Channel(ch); err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}
	}
	values, err := c.compute(rec, channels)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", name, err)
	}
	return &Series{Name: name, Unit: c.Unit, Time: rec.Time, Values: values}, nil
}

//Set holds the derived series of one record. A failed computation is reported in Errors and does not
//affect the other series
type Set struct {
	Series []*Series
	Errors map[string]error
}

//ComputeRecord derives every registered series that applies to rec
func ComputeRecord(rec *record.RawRecord) Set {
	set := Set{Series: make([]*Series, 0), Errors: make(map[string]error)}
	for _, name := range GetAvailableSeries() {
		if !availableSeries[name].Applies(rec) {
			continue
		}
		s, err := Compute(name, rec)
		if err != nil {
			log.Printf("failed to derive %v from %v : %v", name, rec.Path, err)
			metrics.DerivedFailures.WithLabelValues(name).Inc()
			set.Errors[name] = err
			continue
		}
		set.Series = append(set.Series, s)
	}
	return set
}

//ComputeAll derives the series of every record in b
func ComputeAll(b *shot.Bundle) map[shot.Key]Set {
	sets := make(map[shot.Key]Set, len(b.Records))
	for _, key := range b.Keys() {
		sets[key] = ComputeRecord(b.Records[key])
	}
	return sets
}
