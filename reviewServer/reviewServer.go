//Package reviewServer exposes the local record cache over HTTP: shot lists, decoded shot summaries, PNG
//figures, conditioning metadata, a refresh trigger for the remote sync and the prometheus metrics
package reviewServer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/plot"

	"icrhDiag/derived"
	"icrhDiag/fileSync"
	"icrhDiag/record"
	"icrhDiag/schema"
	"icrhDiag/shot"
	"icrhDiag/shotPlot"
)

//Syncer is the part of fileSync.Syncer used by the refresh handler
type Syncer interface {
	Sync(ctx context.Context) (fileSync.Report, error)
}

//Options configures the server
type Options struct {
	FastDataDir     string
	ConditioningDir string
	Loader          *shot.Loader
	//Syncers run on POST /refresh, keyed by a display name
	Syncers map[string]Syncer
	//PlotWidth and PlotHeight size of the PNG figures
	PlotWidth  int
	PlotHeight int
}

type server struct {
	opts Options
	//serializes refresh runs
	refreshMu sync.Mutex
}

func NewServer(opts Options) *server {
	if opts.PlotWidth <= 0 || opts.PlotHeight <= 0 {
		opts.PlotWidth, opts.PlotHeight = 800, 600
	}
	return &server{opts: opts}
}

func (srv *server) Routes() http.Handler {
	router := http.NewServeMux()
	router.Handle("GET /shots", http.HandlerFunc(srv.handleShots))
	router.Handle("GET /shots/{id}", http.HandlerFunc(srv.handleShot))
	router.Handle("GET /shots/{id}/plot.png", http.HandlerFunc(srv.handleShotPlot))
	router.Handle("GET /conditioning", http.HandlerFunc(srv.handleConditioningList))
	router.Handle("GET /conditioning/{file}/metadata", http.HandlerFunc(srv.handleMetadata))
	router.Handle("GET /conditioning/{file}/plot.png", http.HandlerFunc(srv.handleConditioningPlot))
	router.Handle("POST /refresh", http.HandlerFunc(srv.handleRefresh))
	router.Handle("GET /metrics", promhttp.Handler())
	return router
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response : %v\n", err)
	}
}

func writePNG(w http.ResponseWriter, plots [][]*plot.Plot, width, height int) {
	w.Header().Set("Content-Type", "image/png")
	if err := shotPlot.WritePNG(w, plots, width, height); err != nil {
		log.Printf("Failed to write figure : %v\n", err)
	}
}

func (srv *server) grouping() (shot.Grouping, error) {
	files, err := fileSync.ListLocal(srv.opts.FastDataDir)
	if err != nil {
		return shot.Grouping{}, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(srv.opts.FastDataDir, f)
	}
	return shot.GroupByEvent(paths), nil
}

type shotListEntry struct {
	ID    int      `json:"id"`
	Files []string `json:"files"`
}

type shotList struct {
	Shots        []shotListEntry `json:"shots"`
	Unrecognized int             `json:"unrecognized"`
}

func (srv *server) handleShots(w http.ResponseWriter, r *http.Request) {
	g, err := srv.grouping()
	if err != nil {
		http.Error(w, "failed to list shots", http.StatusInternalServerError)
		log.Printf("Failed to list shots : %v\n", err)
		return
	}
	resp := shotList{Shots: make([]shotListEntry, 0, len(g.Events)), Unrecognized: g.Unrecognized}
	for _, id := range g.EventIDs() {
		names := make([]string, 0, len(g.Events[id]))
		for _, p := range g.Events[id] {
			names = append(names, filepath.Base(p))
		}
		resp.Shots = append(resp.Shots, shotListEntry{ID: id, Files: names})
	}
	writeJSON(w, resp)
}

//loadShot parses the id path value and loads the bundle. It writes the error response itself
func (srv *server) loadShot(w http.ResponseWriter, r *http.Request) (*shot.Bundle, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 0 {
		http.Error(w, fmt.Sprintf("%q is not a valid shot number", r.PathValue("id")), http.StatusBadRequest)
		return nil, false
	}
	g, err := srv.grouping()
	if err != nil {
		http.Error(w, "failed to list shots", http.StatusInternalServerError)
		log.Printf("Failed to list shots : %v\n", err)
		return nil, false
	}
	b := srv.opts.Loader.LoadBundle(id, g.Files(id))
	if b.Empty() {
		http.Error(w, fmt.Sprintf("no data for shot %v", id), http.StatusNotFound)
		return nil, false
	}
	return b, true
}

type recordSummary struct {
	File    string            `json:"file"`
	Layout  string            `json:"layout"`
	Rows    int               `json:"rows"`
	Columns []string          `json:"columns"`
	Derived []string          `json:"derived"`
	Errors  map[string]string `json:"derived_errors,omitempty"`
}

type shotSummary struct {
	ID      int                      `json:"id"`
	Records map[string]recordSummary `json:"records"`
	Errors  map[string]string        `json:"errors"`
}

func (srv *server) handleShot(w http.ResponseWriter, r *http.Request) {
	b, ok := srv.loadShot(w, r)
	if !ok {
		return
	}
	sets := derived.ComputeAll(b)
	resp := shotSummary{ID: b.EventID, Records: make(map[string]recordSummary), Errors: make(map[string]string)}
	for _, key := range b.Keys() {
		rec := b.Records[key]
		summary := recordSummary{
			File:    filepath.Base(b.Files[key]),
			Layout:  rec.Schema.Name,
			Rows:    rec.Len(),
			Columns: rec.Columns,
			Derived: make([]string, 0),
		}
		for _, s := range sets[key].Series {
			summary.Derived = append(summary.Derived, s.Name)
		}
		if len(sets[key].Errors) > 0 {
			summary.Errors = make(map[string]string)
			for name, err := range sets[key].Errors {
				summary.Errors[name] = err.Error()
			}
		}
		resp.Records[key.String()] = summary
	}
	for key, err := range b.Errors {
		resp.Errors[key.String()] = err.Error()
	}
	writeJSON(w, resp)
}

func (srv *server) handleShotPlot(w http.ResponseWriter, r *http.Request) {
	b, ok := srv.loadShot(w, r)
	if !ok {
		return
	}
	if len(b.Records) == 0 {
		http.Error(w, fmt.Sprintf("no decodable record for shot %v", b.EventID), http.StatusUnprocessableEntity)
		return
	}
	plots, err := shotPlot.BundleFigure(b)
	if err != nil {
		http.Error(w, "failed to plot shot", http.StatusInternalServerError)
		log.Printf("Failed to plot shot %v : %v\n", b.EventID, err)
		return
	}
	writePNG(w, plots, srv.opts.PlotWidth, srv.opts.PlotHeight)
}

func (srv *server) handleConditioningList(w http.ResponseWriter, r *http.Request) {
	files, err := fileSync.ListLocal(srv.opts.ConditioningDir)
	if err != nil {
		http.Error(w, "failed to list conditioning logs", http.StatusInternalServerError)
		log.Printf("Failed to list conditioning logs : %v\n", err)
		return
	}
	writeJSON(w, files)
}

//conditioningPath extracts only the file name, like the file names of the sync layer
func (srv *server) conditioningPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("file")
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		http.Error(w, fmt.Sprintf("%q is an invalid file name", name), http.StatusBadRequest)
		return "", false
	}
	return filepath.Join(srv.opts.ConditioningDir, name), true
}

func (srv *server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	path, ok := srv.conditioningPath(w, r)
	if !ok {
		return
	}
	md, err := record.ExtractMetadata(path)
	if err != nil {
		http.Error(w, fmt.Sprintf("no conditioning log %v", filepath.Base(path)), http.StatusNotFound)
		return
	}
	writeJSON(w, md)
}

func (srv *server) handleConditioningPlot(w http.ResponseWriter, r *http.Request) {
	path, ok := srv.conditioningPath(w, r)
	if !ok {
		return
	}
	s, err := schema.Lookup(schema.Conditioning)
	if err != nil {
		http.Error(w, "no conditioning layout", http.StatusInternalServerError)
		return
	}
	rec, err := record.Decode(path, s)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, record.ErrIOFailure) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	plots, err := shotPlot.ConditioningFigure(rec)
	if err != nil {
		http.Error(w, "failed to plot conditioning log", http.StatusInternalServerError)
		log.Printf("Failed to plot %v : %v\n", path, err)
		return
	}
	writePNG(w, plots, srv.opts.PlotWidth, srv.opts.PlotHeight)
}

type refreshResult struct {
	Copied []string          `json:"copied"`
	Failed map[string]string `json:"failed"`
	Error  string            `json:"error,omitempty"`
}

func (srv *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	srv.refreshMu.Lock()
	defer srv.refreshMu.Unlock()
	resp := make(map[string]refreshResult, len(srv.opts.Syncers))
	for name, s := range srv.opts.Syncers {
		report, err := s.Sync(r.Context())
		res := refreshResult{Copied: report.Copied, Failed: make(map[string]string)}
		for file, ferr := range report.Failed {
			res.Failed[file] = ferr.Error()
		}
		if err != nil {
			res.Error = err.Error()
			log.Printf("refresh of %v failed : %v\n", name, err)
		}
		resp[name] = res
	}
	writeJSON(w, resp)
}
