package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"

	"icrhDiag/derived"
	"icrhDiag/record"
	"icrhDiag/shotPlot"
)

//closeWithErrLog is a helper that calls Close on c and prints a log message if an error occurs
func closeWithErrLog(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Printf("failed to close %v : %v", name, err)
	}
}

var errCollisionAvoidanceFailed = errors.New("unable to avoid file name collision, using returned name may overwrite data")

//defaultCreateCollisionFreeName is a convenience wrapper for createCollisionFreeName checking for
//collision using os.Stat
func defaultCreateCollisionFreeName(outPath string) (string, error) {
	return createCollisionFreeName(outPath, func(path string) bool {
		_, err := os.Stat(path)
		return !os.IsNotExist(err)
	})
}

//createCollisionFreeName checks if outPath already exists and tries to add numbers from 1 to 100 as suffix
//to find a unused name. If all are taken errCollisionAvoidanceFailed is returned
func createCollisionFreeName(outPath string, doesFileExist func(path string) bool) (string, error) {
	dir := filepath.Dir(outPath)
	ext := filepath.Ext(outPath)
	stem := strings.TrimSuffix(filepath.Base(outPath), ext)

	candidate := outPath
	for suffix := 1; doesFileExist(candidate); suffix++ {
		if suffix >= 100 {
			return candidate, errCollisionAvoidanceFailed
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%v-%v%v", stem, suffix, ext))
	}
	return candidate, nil
}

//StorePlot renders plots into a new png file derived from outPath and returns the path used
func StorePlot(plots [][]*plot.Plot, outPath string, width, height int) (string, error) {
	outPath, err := defaultCreateCollisionFreeName(outPath)
	if err != nil {
		return "", err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create plot file : %v", err)
	}
	defer closeWithErrLog(f.Name(), f)
	if err := shotPlot.WritePNG(f, plots, width, height); err != nil {
		return "", err
	}
	return outPath, f.Sync()
}

//WriteSeriesCSV writes the time axis of rec (display unit) and one column per series
func WriteSeriesCSV(w io.Writer, rec *record.RawRecord, series []*derived.Series) error {
	csvWriter := csv.NewWriter(w)
	header := []string{rec.Schema.DisplayTimeLabel}
	for _, s := range series {
		if len(s.Values) != rec.Len() {
			return fmt.Errorf("%v: %w", s.Name, derived.ErrAlignment)
		}
		header = append(header, s.Name)
	}
	if err := csvWriter.Write(header); err != nil {
		return err
	}
	t := rec.DisplayTime()
	line := make([]string, len(header))
	for i := range t {
		line[0] = strconv.FormatFloat(t[i], 'g', -1, 64)
		for j, s := range series {
			line[j+1] = strconv.FormatFloat(s.Values[i], 'f', 3, 64)
		}
		if err := csvWriter.Write(line); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

//StoreSeriesCSV writes the series of rec to a new csv file derived from outPath
func StoreSeriesCSV(rec *record.RawRecord, series []*derived.Series, outPath string) (string, error) {
	outPath, err := defaultCreateCollisionFreeName(outPath)
	if err != nil {
		return "", err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file : %v", err)
	}
	defer closeWithErrLog(f.Name(), f)
	if err := WriteSeriesCSV(f, rec, series); err != nil {
		return "", fmt.Errorf("failed to write %v : %v", outPath, err)
	}
	return outPath, f.Sync()
}
