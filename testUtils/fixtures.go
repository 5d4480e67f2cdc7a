package testUtils

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	"icrhDiag/schema"
)

//SyntheticLines returns rows data lines in the layout of s. Time stamps start at 0 and advance by stepUS,
//payload fields hold deterministic ADC like counts, placeholder fields are left empty
func SyntheticLines(s *schema.ChannelSchema, rows int, stepUS float64, seed int64) []string {
	counts := DRNGIntSlice(rows*s.FieldCount(), seed, 36000)
	indexPos := s.IndexPos()
	lines := make([]string, rows)
	fields := make([]string, s.FieldCount())
	for r := 0; r < rows; r++ {
		for c, name := range s.Columns {
			switch {
			case c == indexPos:
				fields[c] = strconv.FormatFloat(float64(r)*stepUS, 'f', -1, 64)
			case s.Placeholder[name]:
				fields[c] = ""
			default:
				fields[c] = strconv.Itoa(counts[r*s.FieldCount()+c])
			}
		}
		lines[r] = strings.Join(fields, s.Delimiter)
	}
	return lines
}

//HeaderLines returns a header block of s.HeaderSkip lines that starts with the given "# key = value" pairs
func HeaderLines(s *schema.ChannelSchema, params ...[2]string) []string {
	header := make([]string, 0, s.HeaderSkip)
	for _, p := range params {
		header = append(header, fmt.Sprintf("# %s = %s", p[0], p[1]))
	}
	for len(header) < s.HeaderSkip {
		header = append(header, "# ----")
	}
	return header
}

//WriteLines stores lines (newline terminated) as dir/name and returns the path
func WriteLines(dir, name string, lines []string) (string, error) {
	path := filepath.Join(dir, name)
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write fixture %v : %v", path, err)
	}
	return path, nil
}

//WriteRecordFile writes a complete synthetic record (header block plus rows data lines) in the layout of s
func WriteRecordFile(dir, name string, s *schema.ChannelSchema, rows int, seed int64) (string, error) {
	lines := append(HeaderLines(s), SyntheticLines(s, rows, 10, seed)...)
	return WriteLines(dir, name, lines)
}
