package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//Encode writes rec in the layout of its schema so that decoding the output with the same schema yields the
//same rows. The header block is filled with the metadata lines of md (may be nil) followed by blank comment
//lines. Scaled records are refused because the file format stores raw values
func Encode(w io.Writer, rec *RawRecord, md *Metadata) error {
	if rec.Scaled {
		return errors.New("cannot encode a scaled record")
	}
	s := rec.Schema
	header := make([]string, 0, s.HeaderSkip)
	if md != nil {
		for _, key := range md.Keys {
			header = append(header, fmt.Sprintf("%s %s = %s", commentMarker, key, md.Values[key]))
		}
	}
	if len(header) > s.HeaderSkip {
		return fmt.Errorf("%v metadata lines do not fit in the %v line header of %v", len(header), s.HeaderSkip, s.Name)
	}
	for len(header) < s.HeaderSkip {
		header = append(header, commentMarker)
	}

	bw := bufio.NewWriter(w)
	for _, line := range header {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	fields := make([]string, s.FieldCount())
	indexPos := s.IndexPos()
	for rowIDX, row := range rec.Rows {
		if len(row) != len(rec.Columns) {
			return fmt.Errorf("row %v has %v values, want %v", rowIDX, len(row), len(rec.Columns))
		}
		payloadIDX := 0
		for i := range s.Columns {
			switch {
			case i == indexPos:
				fields[i] = strconv.FormatFloat(rec.Time[rowIDX], 'g', -1, 64)
			case s.Placeholder[s.Columns[i]]:
				fields[i] = ""
			default:
				fields[i] = strconv.FormatFloat(row[payloadIDX], 'g', -1, 64)
				payloadIDX++
			}
		}
		if _, err := bw.WriteString(strings.Join(fields, s.Delimiter) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
