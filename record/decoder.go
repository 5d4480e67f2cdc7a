package record

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"strconv"
	"strings"

	"icrhDiag/metrics"
	"icrhDiag/schema"
)

//commentMarker starts metadata and comment lines
const commentMarker = "#"

//Option configures a decode call
type Option func(*decodeOptions)

type decodeOptions struct {
	scale bool
}

//WithScaling applies the schema scale factors to the payload columns. Raw values are kept by default
func WithScaling() Option {
	return func(o *decodeOptions) {
		o.scale = true
	}
}

//Decoder is the common interface of everything that turns a record file into a RawRecord
type Decoder interface {
	Decode(path string, s *schema.ChannelSchema, opts ...Option) (*RawRecord, error)
	DecodeFamily(path string, family []*schema.ChannelSchema, opts ...Option) (*RawRecord, error)
}

//FileDecoder reads records from the local file system
type FileDecoder struct{}

func (FileDecoder) Decode(path string, s *schema.ChannelSchema, opts ...Option) (*RawRecord, error) {
	return Decode(path, s, opts...)
}

func (FileDecoder) DecodeFamily(path string, family []*schema.ChannelSchema, opts ...Option) (*RawRecord, error) {
	return DecodeFamily(path, family, opts...)
}

type dataLine struct {
	nr   int
	text string
}

//splitDataLines skips headerSkip lines and returns the remaining non blank, non comment lines.
//headerComplete is false if the input ends inside the header block
func splitDataLines(raw []byte, headerSkip int) (lines []dataLine, headerComplete bool, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	maxLine := len(raw) + 1
	if maxLine < bufio.MaxScanTokenSize {
		maxLine = bufio.MaxScanTokenSize
	}
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	scanner.Split(bufio.ScanLines)

	nr := 0
	for scanner.Scan() {
		nr++
		if nr <= headerSkip {
			continue
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		lines = append(lines, dataLine{nr: nr, text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}
	return lines, nr >= headerSkip, nil
}

//Decode reads the record at path using the layout s
func Decode(path string, s *schema.ChannelSchema, opts ...Option) (*RawRecord, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		metrics.DecodedRecords.WithLabelValues(s.Name, resultLabel(ErrIOFailure)).Inc()
		return nil, &DecodeError{Path: path, Cause: ErrIOFailure, Err: err}
	}
	return DecodeBytes(raw, path, s, opts...)
}

//DecodeReader is Decode for an already opened stream; path is only used for error reporting
func DecodeReader(r io.Reader, path string, s *schema.ChannelSchema, opts ...Option) (*RawRecord, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		metrics.DecodedRecords.WithLabelValues(s.Name, resultLabel(ErrIOFailure)).Inc()
		return nil, &DecodeError{Path: path, Cause: ErrIOFailure, Err: err}
	}
	return DecodeBytes(raw, path, s, opts...)
}

//DecodeBytes decodes the raw content of a record file. A file with a complete header but no data rows
//yields an empty record and no error
func DecodeBytes(raw []byte, path string, s *schema.ChannelSchema, opts ...Option) (*RawRecord, error) {
	rec, err := decodeBytes(raw, path, s, opts...)
	metrics.DecodedRecords.WithLabelValues(s.Name, resultLabel(err)).Inc()
	return rec, err
}

func decodeBytes(raw []byte, path string, s *schema.ChannelSchema, opts ...Option) (*RawRecord, error) {
	o := decodeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	lines, headerComplete, err := splitDataLines(raw, s.HeaderSkip)
	if err != nil {
		return nil, &DecodeError{Path: path, Cause: ErrIOFailure, Err: err}
	}
	if !headerComplete {
		return nil, &DecodeError{Path: path, Cause: ErrEmptyFile}
	}

	rec := &RawRecord{
		Path:    path,
		Schema:  s,
		Columns: s.PayloadColumns(),
		Time:    make([]float64, 0, len(lines)),
		Rows:    make([][]float64, 0, len(lines)),
		Scaled:  o.scale,
	}
	indexPos := s.IndexPos()
	var scales []float64
	if o.scale {
		scales = s.PayloadScales()
	}

	for _, l := range lines {
		fields := strings.Split(l.text, s.Delimiter)
		if len(fields) != s.FieldCount() {
			return nil, malformed(path, l.nr, "got %v fields, layout %v expects %v", len(fields), s.Name, s.FieldCount())
		}
		row := make([]float64, 0, len(rec.Columns))
		for i, field := range fields {
			if s.Placeholder[s.Columns[i]] {
				continue
			}
			v, err := parseSample(field)
			if err != nil {
				return nil, malformed(path, l.nr, "column %v : %v", s.Columns[i], err)
			}
			if i == indexPos {
				rec.Time = append(rec.Time, v)
				continue
			}
			if o.scale {
				v *= scales[len(row)]
			}
			row = append(row, v)
		}
		rec.Rows = append(rec.Rows, row)
	}
	return rec, nil
}

//parseSample accepts finite decimal numbers only. nan, inf and hex floats are accepted by strconv but never
//written by the acquisition boards
func parseSample(field string) (float64, error) {
	token := strings.TrimSpace(field)
	if strings.ContainsAny(token, "xX") {
		return 0, fmt.Errorf("%q is not a decimal number", token)
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", token)
	}
	return v, nil
}

//DecodeFamily decodes path with the first layout of family whose field count matches the first data line.
//Files without data rows are decoded with family[0]
func DecodeFamily(path string, family []*schema.ChannelSchema, opts ...Option) (*RawRecord, error) {
	if len(family) == 0 {
		return nil, &DecodeError{Path: path, Cause: schema.ErrUnknownRecordType}
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		metrics.DecodedRecords.WithLabelValues(family[0].Name, resultLabel(ErrIOFailure)).Inc()
		return nil, &DecodeError{Path: path, Cause: ErrIOFailure, Err: err}
	}
	return DecodeBytes(raw, path, pickLayout(raw, family), opts...)
}

func pickLayout(raw []byte, family []*schema.ChannelSchema) *schema.ChannelSchema {
	for _, s := range family {
		lines, _, err := splitDataLines(raw, s.HeaderSkip)
		if err != nil || len(lines) == 0 {
			continue
		}
		if len(strings.Split(lines[0].text, s.Delimiter)) == s.FieldCount() {
			return s
		}
	}
	return family[0]
}
