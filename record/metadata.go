package record

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
)

const metadataSeparator = "="

//Metadata holds the "# key = value" parameters of a record. Keys keeps the order of first appearance,
//a repeated key overwrites the earlier value (last occurrence wins)
type Metadata struct {
	Keys   []string
	Values map[string]string
}

func newMetadata() Metadata {
	return Metadata{Keys: make([]string, 0), Values: make(map[string]string)}
}

//Len returns the number of parameters
func (m Metadata) Len() int {
	return len(m.Keys)
}

//Get returns the value stored for key
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.Values[key]
	return v, ok
}

func (m *Metadata) set(key, value string) {
	if _, ok := m.Values[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Values[key] = value
}

//MarshalJSON encodes the parameters as a plain object
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Values)
}

//ParseMetadata scans r for comment lines holding exactly one separator. Lines without a separator or with
//more than one are ignored. An empty key is stored like any other
func ParseMetadata(r io.Reader) (Metadata, error) {
	md := newMetadata()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, commentMarker) {
			continue
		}
		parts := strings.Split(line[len(commentMarker):], metadataSeparator)
		if len(parts) != 2 {
			continue
		}
		md.set(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
	if err := scanner.Err(); err != nil {
		return md, err
	}
	return md, nil
}

//ExtractMetadata reads the metadata of the record at path. A file without metadata lines yields an empty
//mapping; an unreadable file is reported as ErrIOFailure
func ExtractMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return newMetadata(), &DecodeError{Path: path, Cause: ErrIOFailure, Err: err}
	}
	defer f.Close()

	md, err := ParseMetadata(f)
	if err != nil {
		return md, &DecodeError{Path: path, Cause: ErrIOFailure, Err: err}
	}
	return md, nil
}
