//Package shot groups fast acquisition files by acquisition event ("shot"), loads the records of one event
//into a Bundle and keeps recently used bundles in a bounded cache
package shot

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"icrhDiag/schema"
)

//ErrUnrecognizedFilename is returned for names that do not follow shot_<event>_<board>.<ext>
var ErrUnrecognizedFilename = errors.New("unrecognized filename")

//SubSource names the antenna a board belongs to
type SubSource string

const (
	Q1 SubSource = "Q1"
	Q2 SubSource = "Q2"
	Q4 SubSource = "Q4"
)

//Key identifies one record of a shot
type Key struct {
	SubSource SubSource
	Kind      schema.Kind
}

func (k Key) String() string {
	return fmt.Sprintf("%v_%v", k.SubSource, k.Kind)
}

//Boards maps the board index of a filename to the record it carries. Even boards are the NI 7853 amplitude
//boards, odd boards the NI 7851 phase boards of the same antenna
var Boards = map[int]Key{
	0: {Q1, schema.Amplitude},
	1: {Q1, schema.Phase},
	2: {Q2, schema.Amplitude},
	3: {Q2, schema.Phase},
	4: {Q4, schema.Amplitude},
	5: {Q4, schema.Phase},
}

//SortKeys orders keys by antenna then kind
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SubSource != keys[j].SubSource {
			return keys[i].SubSource < keys[j].SubSource
		}
		return keys[i].Kind < keys[j].Kind
	})
}

const filenamePrefix = "shot"

//FileRef is a parsed fast acquisition filename
type FileRef struct {
	//Path as passed to ParseFilename
	Path    string
	EventID int
	Board   int
	Key     Key
}

//ParseFilename parses the base name of path. Directory components are ignored
func ParseFilename(path string) (FileRef, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return FileRef{}, fmt.Errorf("%w: %q has no extension", ErrUnrecognizedFilename, base)
	}
	tokens := strings.Split(strings.TrimSuffix(base, ext), "_")
	if len(tokens) != 3 || tokens[0] != filenamePrefix {
		return FileRef{}, fmt.Errorf("%w: %q", ErrUnrecognizedFilename, base)
	}
	eventID, err := strconv.Atoi(tokens[1])
	if err != nil || eventID < 0 {
		return FileRef{}, fmt.Errorf("%w: %q has no valid event id", ErrUnrecognizedFilename, base)
	}
	board, err := strconv.Atoi(tokens[2])
	if err != nil {
		return FileRef{}, fmt.Errorf("%w: %q has no valid board index", ErrUnrecognizedFilename, base)
	}
	key, ok := Boards[board]
	if !ok {
		return FileRef{}, fmt.Errorf("%w: %q board %v is not mapped", ErrUnrecognizedFilename, base, board)
	}
	return FileRef{Path: path, EventID: eventID, Board: board, Key: key}, nil
}
