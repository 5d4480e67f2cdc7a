package shot

import "icrhDiag/record"

//Bundle holds the decoded records of one event keyed by antenna and kind. A record that failed to decode
//is reported in Errors instead. A Bundle is not modified once it is returned by a Loader
type Bundle struct {
	EventID int
	Records map[Key]*record.RawRecord
	Errors  map[Key]error
	//Files maps each key to the file it was decoded from
	Files map[Key]string
}

func newBundle(eventID int) *Bundle {
	return &Bundle{
		EventID: eventID,
		Records: make(map[Key]*record.RawRecord),
		Errors:  make(map[Key]error),
		Files:   make(map[Key]string),
	}
}

//Record returns the record stored under k
func (b *Bundle) Record(k Key) (*record.RawRecord, bool) {
	rec, ok := b.Records[k]
	return rec, ok
}

//Keys returns the keys of all decoded records in antenna order
func (b *Bundle) Keys() []Key {
	keys := make([]Key, 0, len(b.Records))
	for k := range b.Records {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

//Empty is true if the bundle holds neither records nor errors
func (b *Bundle) Empty() bool {
	return len(b.Records) == 0 && len(b.Errors) == 0
}

//SizeBytes estimates the memory held by the records of the bundle
func (b *Bundle) SizeBytes() int64 {
	var total int64
	for _, rec := range b.Records {
		total += int64(rec.SizeBytes())
	}
	return total
}

//clone copies the maps so that the result can be extended without touching b
func (b *Bundle) clone() *Bundle {
	c := newBundle(b.EventID)
	for k, v := range b.Records {
		c.Records[k] = v
	}
	for k, v := range b.Errors {
		c.Errors[k] = v
	}
	for k, v := range b.Files {
		c.Files[k] = v
	}
	return c
}
