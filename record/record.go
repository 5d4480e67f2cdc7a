//Package record decodes ICRH delimited text records into time indexed channel tables and extracts the
//"# key = value" metadata block of conditioning logs
package record

import (
	"fmt"

	"icrhDiag/schema"
)

//RawRecord is one decoded file. Rows are aligned with Columns (the schema payload columns, index and
//placeholders removed) and with Time. Values are raw unless Scaled is set
type RawRecord struct {
	Path    string
	Schema  *schema.ChannelSchema
	Columns []string
	Time    []float64
	Rows    [][]float64
	Scaled  bool
}

//Len returns the number of rows
func (r *RawRecord) Len() int {
	return len(r.Rows)
}

//Empty is true for header only records. Consumers treat this as "no data", not as an error
func (r *RawRecord) Empty() bool {
	return len(r.Rows) == 0
}

//ColumnIndex returns the position of channel within a row or -1
func (r *RawRecord) ColumnIndex(channel string) int {
	for i, c := range r.Columns {
		if c == channel {
			return i
		}
	}
	return -1
}

//Channel returns the samples of one channel as a new slice
func (r *RawRecord) Channel(channel string) ([]float64, error) {
	col := r.ColumnIndex(channel)
	if col < 0 {
		return nil, fmt.Errorf("%w: %q not in %v", ErrUnknownChannel, channel, r.Schema.Name)
	}
	values := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		values[i] = row[col]
	}
	return values, nil
}

//DisplayTime returns the time axis converted to the schema display unit (ms or s)
func (r *RawRecord) DisplayTime() []float64 {
	t := make([]float64, len(r.Time))
	for i := range r.Time {
		t[i] = r.Time[i] / r.Schema.DisplayTimeDivisor
	}
	return t
}

//SizeBytes estimates the sample memory held by the record
func (r *RawRecord) SizeBytes() int {
	return 8 * (len(r.Time) + len(r.Rows)*len(r.Columns))
}
