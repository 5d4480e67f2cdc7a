package schema

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegisteredSchemasAreValid(t *testing.T) {
	for _, name := range Available() {
		s, err := Lookup(name)
		if err != nil {
			t.Fatalf("unexpected error looking up %v : %v", name, err)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("schema %v is invalid : %v", name, err)
		}
		if s.Name != name {
			t.Errorf("schema registered as %v calls itself %v", name, s.Name)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("bolometer")
	if !errors.Is(err, ErrUnknownRecordType) {
		t.Errorf("wanted ErrUnknownRecordType got %v", err)
	}
}

func TestPayloadColumns(t *testing.T) {
	tests := []struct {
		name       string
		recordType string
		want       []string
	}{
		{
			name:       "conditioning drops time and placeholder",
			recordType: Conditioning,
			want: []string{"PiG", "PrG", "PiD", "PrD", "V1", "V2", "V3", "V4",
				"Ph(V1-V3)", "Ph(V2-V4)", "Ph(Pig-Pid)"},
		},
		{
			name:       "phase board drops trailing time stamp",
			recordType: FastPhase,
			want:       []string{"Ph1", "Ph2", "Ph3", "Ph4", "Ph5", "Ph6", "Ph7"},
		},
		{
			name:       "amplitude board",
			recordType: FastAmplitude,
			want:       []string{"V1", "V2", "V3", "V4", "PiG", "PrG", "PiD", "PrD"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Lookup(tt.recordType)
			if err != nil {
				t.Fatal(err)
			}
			if got := s.PayloadColumns(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wanted %v got %v", tt.want, got)
			}
			if got, want := len(s.PayloadScales()), len(tt.want); got != want {
				t.Errorf("wanted %v scales got %v", want, got)
			}
		})
	}
}

func TestIndexPosition(t *testing.T) {
	c, _ := Lookup(Conditioning)
	if got := c.IndexPos(); got != 0 {
		t.Errorf("conditioning index should be first column, got %v", got)
	}
	p, _ := Lookup(FastPhase)
	if got := p.IndexPos(); got != 7 {
		t.Errorf("phase index should be column 7, got %v", got)
	}
	a, _ := Lookup(FastAmplitude)
	if got := a.IndexPos(); got != 8 {
		t.Errorf("amplitude index should be column 8, got %v", got)
	}
}

func TestValidateRejectsBrokenLayouts(t *testing.T) {
	tests := []struct {
		name   string
		schema ChannelSchema
	}{
		{
			name:   "index not declared",
			schema: ChannelSchema{Name: "x", Columns: []string{"a", "b"}, IndexCol: "t", Scales: []float64{1, 1}, Delimiter: "\t"},
		},
		{
			name:   "scale count mismatch",
			schema: ChannelSchema{Name: "x", Columns: []string{"a", "t"}, IndexCol: "t", Scales: []float64{1}, Delimiter: "\t"},
		},
		{
			name:   "duplicate column",
			schema: ChannelSchema{Name: "x", Columns: []string{"a", "a", "t"}, IndexCol: "t", Scales: []float64{1, 1, 1}, Delimiter: "\t"},
		},
		{
			name:   "missing delimiter",
			schema: ChannelSchema{Name: "x", Columns: []string{"a", "t"}, IndexCol: "t", Scales: []float64{1, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.schema.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestFamily(t *testing.T) {
	amp, err := Family(Amplitude)
	if err != nil {
		t.Fatal(err)
	}
	if len(amp) != 2 || amp[0].FieldCount() == amp[1].FieldCount() {
		t.Errorf("amplitude family must hold two layouts with distinct field counts")
	}
	if _, err := Family(Kind(7)); !errors.Is(err, ErrUnknownRecordType) {
		t.Errorf("wanted ErrUnknownRecordType got %v", err)
	}
}
