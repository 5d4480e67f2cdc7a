package schema

import "fmt"

//TimeUnit names the unit of the raw index column
type TimeUnit string

const Microsecond TimeUnit = "us"

//ChannelSchema is the immutable description of one record layout. Columns lists every field of a data
//line in file order, including the index column and placeholder columns
type ChannelSchema struct {
	Name       string
	Columns    []string
	IndexCol   string
	Scales     []float64
	Delimiter  string
	HeaderSkip int
	TimeUnit   TimeUnit
	//DisplayTimeDivisor converts raw time stamps into the display axis unit
	DisplayTimeDivisor float64
	DisplayTimeLabel   string
	//Placeholder marks columns that carry no data (e.g. trailing empty field) and are dropped
	Placeholder map[string]bool
}

//FieldCount is the number of fields a matching data line yields
func (s *ChannelSchema) FieldCount() int {
	return len(s.Columns)
}

//IndexPos returns the position of the index column within Columns
func (s *ChannelSchema) IndexPos() int {
	for i, c := range s.Columns {
		if c == s.IndexCol {
			return i
		}
	}
	return -1
}

//IsPayload is true for columns that end up in decoded rows
func (s *ChannelSchema) IsPayload(col int) bool {
	name := s.Columns[col]
	return name != s.IndexCol && !s.Placeholder[name]
}

//PayloadColumns returns the channel names of a decoded row in order
func (s *ChannelSchema) PayloadColumns() []string {
	cols := make([]string, 0, len(s.Columns))
	for i, c := range s.Columns {
		if s.IsPayload(i) {
			cols = append(cols, c)
		}
	}
	return cols
}

//PayloadScales returns the scale factors aligned with PayloadColumns
func (s *ChannelSchema) PayloadScales() []float64 {
	scales := make([]float64, 0, len(s.Columns))
	for i := range s.Columns {
		if s.IsPayload(i) {
			scales = append(scales, s.Scales[i])
		}
	}
	return scales
}

//Scale returns the scale factor of the named channel
func (s *ChannelSchema) Scale(channel string) (float64, error) {
	for i, c := range s.Columns {
		if c == channel {
			return s.Scales[i], nil
		}
	}
	return 0, fmt.Errorf("schema %v has no channel %q", s.Name, channel)
}

//Validate checks the layout invariants
func (s *ChannelSchema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema %v has no columns", s.Name)
	}
	if len(s.Scales) != len(s.Columns) {
		return fmt.Errorf("schema %v has %v scales for %v columns", s.Name, len(s.Scales), len(s.Columns))
	}
	if s.IndexPos() < 0 {
		return fmt.Errorf("schema %v index column %q is not a declared column", s.Name, s.IndexCol)
	}
	if s.Placeholder[s.IndexCol] {
		return fmt.Errorf("schema %v index column %q is a placeholder", s.Name, s.IndexCol)
	}
	if s.Delimiter == "" {
		return fmt.Errorf("schema %v has no delimiter", s.Name)
	}
	if s.HeaderSkip < 0 {
		return fmt.Errorf("schema %v has negative header skip", s.Name)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if seen[c] {
			return fmt.Errorf("schema %v declares column %q twice", s.Name, c)
		}
		seen[c] = true
	}
	return nil
}

func ones(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

var conditioningSchema = &ChannelSchema{
	Name: Conditioning,
	Columns: []string{"Temps",
		"PiG", "PrG", "PiD", "PrD",
		"V1", "V2", "V3", "V4",
		"Ph(V1-V3)", "Ph(V2-V4)", "Ph(Pig-Pid)", "bidon"},
	IndexCol: "Temps",
	Scales: []float64{1,
		1.0 / PowerUnitsPerKW, 1.0 / PowerUnitsPerKW, 1.0 / PowerUnitsPerKW, 1.0 / PowerUnitsPerKW,
		1, 1, 1, 1,
		1, 1, 1, 1},
	Delimiter:          "\t",
	HeaderSkip:         18,
	TimeUnit:           Microsecond,
	DisplayTimeDivisor: MicrosecondsPerMillisecond,
	DisplayTimeLabel:   "Time [ms]",
	Placeholder:        map[string]bool{"bidon": true},
}

//fast acquisition, NI 7853 board: 4 voltages, 4 powers, time stamp last
var fastAmplitudeSchema = &ChannelSchema{
	Name: FastAmplitude,
	Columns: []string{"V1", "V2", "V3", "V4",
		"PiG", "PrG", "PiD", "PrD", "Time"},
	IndexCol: "Time",
	Scales: []float64{
		1.0 / VoltageUnitsPerVolt, 1.0 / VoltageUnitsPerVolt, 1.0 / VoltageUnitsPerVolt, 1.0 / VoltageUnitsPerVolt,
		1, 1, 1, 1, 1},
	Delimiter:          "\t",
	TimeUnit:           Microsecond,
	DisplayTimeDivisor: MicrosecondsPerSecond,
	DisplayTimeLabel:   "Time [s]",
}

//same board with the four matching-capacitor set points appended before the time stamp
var fastAmplitudeCtrlSchema = &ChannelSchema{
	Name: FastAmplitudeCtrl,
	Columns: []string{"V1", "V2", "V3", "V4",
		"PiG", "PrG", "PiD", "PrD",
		"CGH", "CGB", "CDH", "CDB", "Time"},
	IndexCol: "Time",
	Scales: append([]float64{
		1.0 / VoltageUnitsPerVolt, 1.0 / VoltageUnitsPerVolt, 1.0 / VoltageUnitsPerVolt, 1.0 / VoltageUnitsPerVolt},
		ones(9)...),
	Delimiter:          "\t",
	TimeUnit:           Microsecond,
	DisplayTimeDivisor: MicrosecondsPerSecond,
	DisplayTimeLabel:   "Time [s]",
}

//fast acquisition, NI 7851 board: 7 phase measurements, time stamp last
var fastPhaseSchema = &ChannelSchema{
	Name:     FastPhase,
	Columns:  []string{"Ph1", "Ph2", "Ph3", "Ph4", "Ph5", "Ph6", "Ph7", "Time"},
	IndexCol: "Time",
	Scales: []float64{
		1.0 / PhaseUnitsPerDegree, 1.0 / PhaseUnitsPerDegree, 1.0 / PhaseUnitsPerDegree, 1.0 / PhaseUnitsPerDegree,
		1.0 / PhaseUnitsPerDegree, 1.0 / PhaseUnitsPerDegree, 1.0 / PhaseUnitsPerDegree, 1},
	Delimiter:          "\t",
	TimeUnit:           Microsecond,
	DisplayTimeDivisor: MicrosecondsPerSecond,
	DisplayTimeLabel:   "Time [s]",
}
