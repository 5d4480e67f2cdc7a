package record

import (
	"log"

	"icrhDiag/schema"
)

//Result bundles the outcome of decoding one file of a batch
type Result struct {
	Path   string
	Record *RawRecord
	Err    error
}

//LayoutPicker returns the candidate layouts for a file
type LayoutPicker func(path string) ([]*schema.ChannelSchema, error)

//DecodeBatch decodes every path independently. A failing file is logged and reported in its Result, the
//remaining files are still decoded
func DecodeBatch(paths []string, pick LayoutPicker, opts ...Option) []Result {
	results := make([]Result, len(paths))
	for i, path := range paths {
		results[i].Path = path
		family, err := pick(path)
		if err != nil {
			log.Printf("skipping %v : %v", path, err)
			results[i].Err = err
			continue
		}
		results[i].Record, results[i].Err = DecodeFamily(path, family, opts...)
		if results[i].Err != nil {
			log.Printf("skipping %v : %v", path, results[i].Err)
		}
	}
	return results
}
