package mocks

import (
	"fmt"

	"icrhDiag/schema"
	"icrhDiag/testUtils"
)

//CreateShotFiles writes one synthetic fast acquisition file per board of eventID into dir, named following the
//shot_<event>_<board>.dat convention. Even boards get the amplitude layout, odd boards the phase layout.
//Each file holds rows data lines; the board index is used as RNG seed offset
func CreateShotFiles(dir string, eventID int, boards []int, rows int) ([]string, error) {
	amplitude, err := schema.Lookup(schema.FastAmplitude)
	if err != nil {
		return nil, err
	}
	phase, err := schema.Lookup(schema.FastPhase)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(boards))
	for _, board := range boards {
		layout := amplitude
		if board%2 == 1 {
			layout = phase
		}
		name := fmt.Sprintf("shot_%v_%v.dat", eventID, board)
		path, err := testUtils.WriteRecordFile(dir, name, layout, rows, int64(eventID*10+board))
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

//AllBoards lists the six boards of a complete shot
var AllBoards = []int{0, 1, 2, 3, 4, 5}
