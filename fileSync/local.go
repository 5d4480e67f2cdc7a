package fileSync

import (
	"io/ioutil"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

//ListLocal returns the names of the regular, non hidden files in dir, most recent (lexicographically last)
//first
func ListLocal(dir string) ([]string, error) {
	infos, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %v", dir)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

//EmptyFiles returns the names of the zero byte files in dir. Interrupted transfers leave such files behind
func EmptyFiles(dir string) ([]string, error) {
	infos, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %v", dir)
	}
	names := make([]string, 0)
	for _, info := range infos {
		if info.Mode().IsRegular() && info.Size() == 0 {
			names = append(names, info.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
