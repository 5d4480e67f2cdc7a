package shot

import (
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"icrhDiag/metrics"
	"icrhDiag/record"
	"icrhDiag/schema"
)

//Loader decodes the files of one event into a Bundle. Decoded records and structural decode failures
//(malformed rows, truncated header) are memoized per event, antenna and kind through the cache; I/O
//failures are retried on the next load
type Loader struct {
	decoder record.Decoder
	opts    []record.Option
	cache   *Cache
	group   singleflight.Group
}

//NewLoader creates a loader that stores its bundles in cache. opts are passed to every decode call
func NewLoader(decoder record.Decoder, cache *Cache, opts ...record.Option) *Loader {
	if cache == nil {
		cache = NewCache(0, 0)
	}
	return &Loader{decoder: decoder, opts: opts, cache: cache}
}

//Cache returns the bundle cache of the loader
func (l *Loader) Cache() *Cache {
	return l.cache
}

//LoadBundle returns the bundle of eventID built from the matching entries of files. Files of other events
//and unrecognized names are ignored. An event without files yields an empty bundle.
//Concurrent calls for the same event and file set share one load
func (l *Loader) LoadBundle(eventID int, files []string) *Bundle {
	refs := selectFiles(eventID, files)
	if len(refs) == 0 {
		return newBundle(eventID)
	}
	if cached, ok := l.cache.Get(eventID); ok && complete(cached, refs) {
		metrics.BundleLoads.WithLabelValues("hit").Inc()
		return cached
	}

	v, _, _ := l.group.Do(flightKey(eventID, refs), func() (interface{}, error) {
		//a concurrent load may have finished in the meantime
		cached, ok := l.cache.Get(eventID)
		if ok && complete(cached, refs) {
			metrics.BundleLoads.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.BundleLoads.WithLabelValues("miss").Inc()
		b := l.load(eventID, refs, cached)
		l.cache.Put(b)
		return b, nil
	})
	return v.(*Bundle)
}

func (l *Loader) load(eventID int, refs map[Key]FileRef, previous *Bundle) *Bundle {
	b := newBundle(eventID)
	if previous != nil {
		b = previous.clone()
	}

	var mu sync.Mutex
	var g errgroup.Group
	for key, ref := range refs {
		if settled(b, key, ref) {
			continue
		}
		key, ref := key, ref
		g.Go(func() error {
			family, err := schema.Family(key.Kind)
			var rec *record.RawRecord
			if err == nil {
				rec, err = l.decoder.DecodeFamily(ref.Path, family, l.opts...)
			}
			mu.Lock()
			defer mu.Unlock()
			b.Files[key] = ref.Path
			if err != nil {
				//one damaged file must not hide the other records of the shot
				log.Printf("shot %v: failed to decode %v : %v", eventID, ref.Path, err)
				delete(b.Records, key)
				b.Errors[key] = err
				return nil
			}
			delete(b.Errors, key)
			b.Records[key] = rec
			return nil
		})
	}
	_ = g.Wait()
	return b
}

//complete is true if every key of refs is settled
func complete(b *Bundle, refs map[Key]FileRef) bool {
	for key, ref := range refs {
		if !settled(b, key, ref) {
			return false
		}
	}
	return true
}

//settled is true if key was decoded from ref.Path, or failed on it for a reason other than I/O. A malformed
//file fails the same way until it is replaced, which requires evicting the event
func settled(b *Bundle, key Key, ref FileRef) bool {
	if b.Files[key] != ref.Path {
		return false
	}
	if _, ok := b.Records[key]; ok {
		return true
	}
	err, ok := b.Errors[key]
	return ok && !errors.Is(err, record.ErrIOFailure)
}

//flightKey identifies a load by event and the files it was asked to decode
func flightKey(eventID int, refs map[Key]FileRef) string {
	paths := make([]string, 0, len(refs))
	for _, ref := range refs {
		paths = append(paths, ref.Path)
	}
	sort.Strings(paths)
	return strconv.Itoa(eventID) + "\x00" + strings.Join(paths, "\x00")
}

//selectFiles picks the files of eventID. If two files map to the same key the lexicographically first wins
func selectFiles(eventID int, files []string) map[Key]FileRef {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	refs := make(map[Key]FileRef)
	for _, f := range sorted {
		ref, err := ParseFilename(f)
		if err != nil || ref.EventID != eventID {
			continue
		}
		if prev, ok := refs[ref.Key]; ok {
			log.Printf("shot %v: %v and %v both hold %v, using the first", eventID, prev.Path, f, ref.Key)
			continue
		}
		refs[ref.Key] = ref
	}
	return refs
}
