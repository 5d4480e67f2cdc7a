package shot

import (
	"log"
	"sort"
)

//Grouping is the result of GroupByEvent. Unrecognized counts the names that were excluded
type Grouping struct {
	Events       map[int][]string
	Unrecognized int
}

//GroupByEvent sorts files into their events. Names that do not follow the filename convention are counted
//and dropped
func GroupByEvent(files []string) Grouping {
	g := Grouping{Events: make(map[int][]string)}
	for _, f := range files {
		ref, err := ParseFilename(f)
		if err != nil {
			g.Unrecognized++
			continue
		}
		g.Events[ref.EventID] = append(g.Events[ref.EventID], f)
	}
	if g.Unrecognized > 0 {
		log.Printf("ignored %v files not matching %v_<event>_<board>.<ext>", g.Unrecognized, filenamePrefix)
	}
	return g
}

//EventIDs returns the event ids, most recent (highest) first
func (g Grouping) EventIDs() []int {
	ids := make([]int, 0, len(g.Events))
	for id := range g.Events {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	return ids
}

//Files returns the files of one event, nil for unknown events
func (g Grouping) Files(eventID int) []string {
	return g.Events[eventID]
}
