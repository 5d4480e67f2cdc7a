//Package schema provides the fixed column layouts of the ICRH record types (conditioning logs and the
//fast acquisition boards) and the lookup from record type / board index to layout
package schema

import (
	"errors"
	"fmt"
	"sort"
)

//Unit conversion constants. Raw time stamps are in µs for every record family; the display unit differs
const (
	//MicrosecondsPerMillisecond converts conditioning time stamps to the ms display axis
	MicrosecondsPerMillisecond = 1e3
	//MicrosecondsPerSecond converts fast acquisition time stamps to the s display axis
	MicrosecondsPerSecond = 1e6
	//PowerUnitsPerKW raw conditioning power units per kW
	PowerUnitsPerKW = 10
	//VoltageUnitsPerVolt raw fast amplitude voltage units per V
	VoltageUnitsPerVolt = 10
	//PhaseUnitsPerDegree raw phase units per degree
	PhaseUnitsPerDegree = 100
)

//Record type identifiers
const (
	Conditioning      = "conditioning"
	FastAmplitude     = "fast_amplitude"
	FastAmplitudeCtrl = "fast_amplitude_ctrl"
	FastPhase         = "fast_phase"
)

//ErrUnknownRecordType is returned for record types or boards without a registered layout
var ErrUnknownRecordType = errors.New("unknown record type")

//Kind distinguishes the two fast acquisition board families
type Kind int

const (
	Amplitude Kind = iota
	Phase
)

func (k Kind) String() string {
	switch k {
	case Amplitude:
		return "amplitude"
	case Phase:
		return "phase"
	default:
		return "unknown"
	}
}

//availableSchemas hand edited list of the known layouts. Add new record types here
var availableSchemas = map[string]*ChannelSchema{
	Conditioning:      conditioningSchema,
	FastAmplitude:     fastAmplitudeSchema,
	FastAmplitudeCtrl: fastAmplitudeCtrlSchema,
	FastPhase:         fastPhaseSchema,
}

//kindFamilies lists the layouts a board of the given kind may emit, most common first
var kindFamilies = map[Kind][]string{
	Amplitude: {FastAmplitude, FastAmplitudeCtrl},
	Phase:     {FastPhase},
}

//Available returns the sorted names of all registered record types
func Available() []string {
	names := make([]string, 0, len(availableSchemas))
	for key := range availableSchemas {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

//Lookup returns the layout registered for recordType or ErrUnknownRecordType
func Lookup(recordType string) (*ChannelSchema, error) {
	s, ok := availableSchemas[recordType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecordType, recordType)
	}
	return s, nil
}

//Family returns the candidate layouts for a board kind. The decoder picks the one matching the field count
func Family(kind Kind) ([]*ChannelSchema, error) {
	names, ok := kindFamilies[kind]
	if !ok {
		return nil, fmt.Errorf("%w: board kind %v", ErrUnknownRecordType, kind)
	}
	family := make([]*ChannelSchema, 0, len(names))
	for _, name := range names {
		s, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		family = append(family, s)
	}
	return family, nil
}
