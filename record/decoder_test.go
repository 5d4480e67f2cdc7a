package record

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"icrhDiag/schema"
	"icrhDiag/testUtils"
)

func mustLookup(t *testing.T, name string) *schema.ChannelSchema {
	t.Helper()
	s, err := schema.Lookup(name)
	if err != nil {
		t.Fatalf("failed to lookup schema %v : %v", name, err)
	}
	return s
}

func TestDecode_Conditioning(t *testing.T) {
	s := mustLookup(t, schema.Conditioning)
	lines := testUtils.HeaderLines(s, [2]string{"Consigne", "50 kW"})
	lines = append(lines,
		"0\t100\t5\t200\t7\t1\t2\t3\t4\t10\t20\t30\t",
		"1000\t110\t6\t210\t8\t1.5\t2.5\t3.5\t4.5\t11\t21\t31\t",
	)
	path, err := testUtils.WriteLines(t.TempDir(), "condi.csv", lines)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := Decode(path, s)
	if err != nil {
		t.Fatalf("unexpected error : %v", err)
	}
	if rec.Len() != 2 {
		t.Fatalf("wanted 2 rows got %v", rec.Len())
	}
	if want := []float64{0, 1000}; !testUtils.FloatSliceEqUpTo(rec.Time, want, 0) {
		t.Errorf("wanted time %v got %v", want, rec.Time)
	}
	if got, want := len(rec.Rows[0]), 11; got != want {
		t.Errorf("wanted %v payload columns got %v", want, got)
	}
	prg, err := rec.Channel("PrG")
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{5, 6}; !testUtils.FloatSliceEqUpTo(prg, want, 0) {
		t.Errorf("wanted PrG %v got %v", want, prg)
	}
	if want := []float64{0, 1}; !testUtils.FloatSliceEqUpTo(rec.DisplayTime(), want, 1e-12) {
		t.Errorf("wanted display time %v ms got %v", want, rec.DisplayTime())
	}
}

func TestDecode_HeaderOnlyIsEmptyRecord(t *testing.T) {
	for _, name := range schema.Available() {
		t.Run(name, func(t *testing.T) {
			s := mustLookup(t, name)
			path, err := testUtils.WriteLines(t.TempDir(), "header-only.dat", testUtils.HeaderLines(s))
			if err != nil {
				t.Fatal(err)
			}
			rec, err := Decode(path, s)
			if err != nil {
				t.Fatalf("unexpected error : %v", err)
			}
			if !rec.Empty() || rec.Len() != 0 {
				t.Errorf("wanted empty record got %v rows", rec.Len())
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	cond := mustLookup(t, schema.Conditioning)
	phase := mustLookup(t, schema.FastPhase)

	tests := []struct {
		name      string
		schema    *schema.ChannelSchema
		lines     []string
		wantCause error
		wantLine  int
	}{
		{
			name:      "too few fields",
			schema:    phase,
			lines:     []string{"1\t2\t3\t4\t5\t6\t7\t0", "1\t2\t3\t4\t5\t6\t10"},
			wantCause: ErrMalformedRow,
			wantLine:  2,
		},
		{
			name:      "too many fields",
			schema:    phase,
			lines:     []string{"1\t2\t3\t4\t5\t6\t7\t0\t9"},
			wantCause: ErrMalformedRow,
			wantLine:  1,
		},
		{
			name:      "non numeric value",
			schema:    phase,
			lines:     []string{"1\t2\tx\t4\t5\t6\t7\t0"},
			wantCause: ErrMalformedRow,
			wantLine:  1,
		},
		{
			name:      "nan sample",
			schema:    phase,
			lines:     []string{"1\t2\t3\t4\t5\t6\t7\t0", "nan\t1\t2\t3\t4\t5\t6\t10"},
			wantCause: ErrMalformedRow,
			wantLine:  2,
		},
		{
			name:      "infinite sample",
			schema:    phase,
			lines:     []string{"1\t2\t-Infinity\t4\t5\t6\t7\t0"},
			wantCause: ErrMalformedRow,
			wantLine:  1,
		},
		{
			name:      "infinite time stamp",
			schema:    phase,
			lines:     []string{"1\t2\t3\t4\t5\t6\t7\tinf"},
			wantCause: ErrMalformedRow,
			wantLine:  1,
		},
		{
			name:      "hex float",
			schema:    phase,
			lines:     []string{"1\t2\t3\t0x1p-2\t5\t6\t7\t0"},
			wantCause: ErrMalformedRow,
			wantLine:  1,
		},
		{
			name:      "empty time stamp",
			schema:    phase,
			lines:     []string{"1\t2\t3\t4\t5\t6\t7\t"},
			wantCause: ErrMalformedRow,
			wantLine:  1,
		},
		{
			name:      "truncated header",
			schema:    cond,
			lines:     []string{"# only", "# three", "# lines"},
			wantCause: ErrEmptyFile,
		},
		{
			name:      "zero byte conditioning file",
			schema:    cond,
			lines:     nil,
			wantCause: ErrEmptyFile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := testUtils.WriteLines(t.TempDir(), "broken.dat", tt.lines)
			if err != nil {
				t.Fatal(err)
			}
			rec, err := Decode(path, tt.schema)
			if rec != nil {
				t.Errorf("wanted no record got %v rows", rec.Len())
			}
			if !errors.Is(err, tt.wantCause) {
				t.Fatalf("wanted %v got %v", tt.wantCause, err)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("wanted *DecodeError got %T", err)
			}
			if decodeErr.Path != path {
				t.Errorf("wanted path %v got %v", path, decodeErr.Path)
			}
			if decodeErr.Line != tt.wantLine {
				t.Errorf("wanted line %v got %v", tt.wantLine, decodeErr.Line)
			}
		})
	}
}

func TestDecode_MissingFile(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "nope.dat"), mustLookup(t, schema.FastPhase))
	if !errors.Is(err, ErrIOFailure) {
		t.Errorf("wanted ErrIOFailure got %v", err)
	}
}

func TestDecode_DuplicateTimestamps(t *testing.T) {
	s := mustLookup(t, schema.FastPhase)
	path, err := testUtils.WriteLines(t.TempDir(), "dup.dat", []string{
		"1\t2\t3\t4\t5\t6\t7\t100",
		"1\t2\t3\t4\t5\t6\t7\t100",
		"1\t2\t3\t4\t5\t6\t7\t90",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec, err := Decode(path, s)
	if err != nil {
		t.Fatalf("unexpected error : %v", err)
	}
	if rec.Len() != 3 {
		t.Errorf("wanted 3 rows got %v", rec.Len())
	}
}

func TestDecode_Scaling(t *testing.T) {
	s := mustLookup(t, schema.FastPhase)
	line := "100\t200\t300\t400\t500\t600\t700\t5"
	raw, err := DecodeBytes([]byte(line+"\n"), "mem", s)
	if err != nil {
		t.Fatal(err)
	}
	scaled, err := DecodeBytes([]byte(line+"\n"), "mem", s, WithScaling())
	if err != nil {
		t.Fatal(err)
	}
	if !testUtils.FloatSliceEqUpTo(raw.Rows[0], []float64{100, 200, 300, 400, 500, 600, 700}, 0) {
		t.Errorf("raw values must be preserved by default, got %v", raw.Rows[0])
	}
	if !testUtils.FloatSliceEqUpTo(scaled.Rows[0], []float64{1, 2, 3, 4, 5, 6, 7}, 1e-12) {
		t.Errorf("wanted degrees got %v", scaled.Rows[0])
	}
	if !scaled.Scaled || raw.Scaled {
		t.Errorf("Scaled flag not set correctly")
	}
	if scaled.Time[0] != 5 {
		t.Errorf("time axis must not be scaled, got %v", scaled.Time[0])
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range schema.Available() {
		for seed := int64(1); seed <= 3; seed++ {
			s := mustLookup(t, name)
			raw := append(testUtils.HeaderLines(s), testUtils.SyntheticLines(s, 50, 0.5, seed)...)
			var in bytes.Buffer
			for _, l := range raw {
				in.WriteString(l + "\n")
			}
			first, err := DecodeBytes(in.Bytes(), "in", s)
			if err != nil {
				t.Fatalf("%v: unexpected error : %v", name, err)
			}

			var out bytes.Buffer
			if err := Encode(&out, first, nil); err != nil {
				t.Fatalf("%v: encode failed : %v", name, err)
			}
			second, err := DecodeBytes(out.Bytes(), "out", s)
			if err != nil {
				t.Fatalf("%v: decoding encoded record failed : %v", name, err)
			}

			if first.Len() != second.Len() {
				t.Fatalf("%v: wanted %v rows got %v", name, first.Len(), second.Len())
			}
			if !testUtils.FloatSliceEqUpTo(first.Time, second.Time, 1e-9) {
				t.Errorf("%v: time axis differs after round trip", name)
			}
			for i := range first.Rows {
				if !testUtils.FloatSliceEqUpTo(first.Rows[i], second.Rows[i], 1e-9) {
					t.Errorf("%v: row %v differs: %v vs %v", name, i, first.Rows[i], second.Rows[i])
				}
			}
		}
	}
}

func TestEncode_RefusesScaled(t *testing.T) {
	s := mustLookup(t, schema.FastPhase)
	rec, err := DecodeBytes([]byte("1\t2\t3\t4\t5\t6\t7\t8\n"), "mem", s, WithScaling())
	if err != nil {
		t.Fatal(err)
	}
	if err := Encode(&bytes.Buffer{}, rec, nil); err == nil {
		t.Errorf("expected error encoding a scaled record")
	}
}

func TestDecodeFamily(t *testing.T) {
	family, err := schema.Family(schema.Amplitude)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	tests := []struct {
		name       string
		layout     string
		rows       int
		wantSchema string
	}{
		{name: "eight channels", layout: schema.FastAmplitude, rows: 4, wantSchema: schema.FastAmplitude},
		{name: "twelve channels", layout: schema.FastAmplitudeCtrl, rows: 4, wantSchema: schema.FastAmplitudeCtrl},
		{name: "no rows", layout: schema.FastAmplitudeCtrl, rows: 0, wantSchema: schema.FastAmplitude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := testUtils.WriteRecordFile(dir, tt.name+".dat", mustLookup(t, tt.layout), tt.rows, 7)
			if err != nil {
				t.Fatal(err)
			}
			rec, err := DecodeFamily(path, family)
			if err != nil {
				t.Fatalf("unexpected error : %v", err)
			}
			if rec.Schema.Name != tt.wantSchema {
				t.Errorf("wanted layout %v got %v", tt.wantSchema, rec.Schema.Name)
			}
			if rec.Len() != tt.rows {
				t.Errorf("wanted %v rows got %v", tt.rows, rec.Len())
			}
		})
	}
}

func TestDecodeBatch_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	phase := mustLookup(t, schema.FastPhase)
	good1, _ := testUtils.WriteRecordFile(dir, "shot_1_1.dat", phase, 10, 1)
	bad, _ := testUtils.WriteLines(dir, "shot_1_3.dat", []string{"1\t2\t3"})
	good2, _ := testUtils.WriteRecordFile(dir, "shot_1_5.dat", phase, 12, 2)

	results := DecodeBatch([]string{good1, bad, good2}, func(string) ([]*schema.ChannelSchema, error) {
		return schema.Family(schema.Phase)
	})
	if len(results) != 3 {
		t.Fatalf("wanted 3 results got %v", len(results))
	}
	if results[0].Err != nil || results[0].Record.Len() != 10 {
		t.Errorf("first file should decode, got %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, ErrMalformedRow) {
		t.Errorf("wanted ErrMalformedRow for middle file got %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Record.Len() != 12 {
		t.Errorf("last file should decode, got %v", results[2].Err)
	}
}

func TestChannel_Unknown(t *testing.T) {
	rec, err := DecodeBytes([]byte("1\t2\t3\t4\t5\t6\t7\t8\n"), "mem", mustLookup(t, schema.FastPhase))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rec.Channel("PiG"); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("wanted ErrUnknownChannel got %v", err)
	}
}
