package reviewServer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"icrhDiag/fileSync"
	"icrhDiag/mocks"
	mockRecord "icrhDiag/mocks/record"
	"icrhDiag/schema"
	"icrhDiag/shot"
	"icrhDiag/testUtils"
)

type fakeSyncer struct {
	calls  int
	report fileSync.Report
	err    error
}

func (f *fakeSyncer) Sync(ctx context.Context) (fileSync.Report, error) {
	f.calls++
	return f.report, f.err
}

func newTestServer(t *testing.T) (*httptest.Server, *mockRecord.CountingDecoder, *fakeSyncer) {
	t.Helper()
	fastDir, condiDir := t.TempDir(), t.TempDir()
	if _, err := mocks.CreateShotFiles(fastDir, 12, mocks.AllBoards, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := mocks.CreateShotFiles(fastDir, 13, []int{0}, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := testUtils.WriteLines(fastDir, "notes.txt", []string{"hello"}); err != nil {
		t.Fatal(err)
	}
	s, err := schema.Lookup(schema.Conditioning)
	if err != nil {
		t.Fatal(err)
	}
	lines := append(testUtils.HeaderLines(s, [2]string{"Consigne", "30"}), testUtils.SyntheticLines(s, 40, 1000, 2)...)
	if _, err := testUtils.WriteLines(condiDir, "condi_01.csv", lines); err != nil {
		t.Fatal(err)
	}

	decoder := mockRecord.NewCountingDecoder()
	syncer := &fakeSyncer{report: fileSync.Report{Copied: []string{"shot_14_0.dat"}, Failed: map[string]error{"shot_14_1.dat": fmt.Errorf("timeout")}}}
	srv := httptest.NewUnstartedServer(nil)
	srv.Config.Handler = NewServer(Options{
		FastDataDir:     fastDir,
		ConditioningDir: condiDir,
		Loader:          shot.NewLoader(decoder, shot.NewCache(4, 0)),
		Syncers:         map[string]Syncer{"fast": syncer},
		PlotWidth:       400,
		PlotHeight:      300,
	}).Routes()
	srv.Start()
	t.Cleanup(srv.Close)
	return srv, decoder, syncer
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	rs, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %v failed : %v", path, err)
	}
	defer rs.Body.Close()
	body, err := ioutil.ReadAll(rs.Body)
	if err != nil {
		t.Fatalf("failed to read body of %v : %v", path, err)
	}
	return rs, body
}

func TestShots(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rs, body := get(t, srv, "/shots")
	if rs.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %v", rs.Status)
	}
	got := shotList{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("failed to parse response : %v", err)
	}
	if len(got.Shots) != 2 || got.Shots[0].ID != 13 || got.Shots[1].ID != 12 {
		t.Errorf("wanted shots [13 12] got %+v", got.Shots)
	}
	if len(got.Shots[1].Files) != 6 {
		t.Errorf("wanted 6 files for shot 12 got %v", got.Shots[1].Files)
	}
	if got.Unrecognized != 1 {
		t.Errorf("wanted 1 unrecognized file got %v", got.Unrecognized)
	}
}

func TestShot(t *testing.T) {
	srv, decoder, _ := newTestServer(t)
	for i := 0; i < 2; i++ {
		rs, body := get(t, srv, "/shots/12")
		if rs.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status %v", rs.Status)
		}
		got := shotSummary{}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("failed to parse response : %v", err)
		}
		if got.ID != 12 || len(got.Records) != 6 {
			t.Fatalf("wanted 6 records of shot 12 got %+v", got)
		}
		q1 := got.Records["Q1_amplitude"]
		if q1.Layout != schema.FastAmplitude || q1.Rows != 30 || q1.File != "shot_12_0.dat" {
			t.Errorf("unexpected Q1 amplitude summary %+v", q1)
		}
		if strings.Join(q1.Derived, ",") != "vswr_left,vswr_right" {
			t.Errorf("unexpected derived series %v", q1.Derived)
		}
	}
	if decoder.TotalCalls() != 6 {
		t.Errorf("wanted 6 decode calls over two requests got %v", decoder.TotalCalls())
	}
}

func TestShot_Errors(t *testing.T) {
	srv, _, _ := newTestServer(t)
	tests := []struct {
		path string
		want int
	}{
		{"/shots/abc", http.StatusBadRequest},
		{"/shots/99", http.StatusNotFound},
		{"/shots/99/plot.png", http.StatusNotFound},
		{"/conditioning/missing.csv/metadata", http.StatusNotFound},
		{"/conditioning/missing.csv/plot.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		rs, _ := get(t, srv, tt.path)
		if rs.StatusCode != tt.want {
			t.Errorf("%v: wanted status %v got %v", tt.path, tt.want, rs.StatusCode)
		}
	}
}

func TestPlots(t *testing.T) {
	srv, _, _ := newTestServer(t)
	for _, path := range []string{"/shots/12/plot.png", "/shots/13/plot.png", "/conditioning/condi_01.csv/plot.png"} {
		rs, body := get(t, srv, path)
		if rs.StatusCode != http.StatusOK {
			t.Errorf("%v: unexpected status %v", path, rs.Status)
			continue
		}
		if ct := rs.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("%v: wanted image/png got %v", path, ct)
		}
		if !bytes.HasPrefix(body, []byte("\x89PNG")) {
			t.Errorf("%v: body is not a png", path)
		}
	}
}

func TestConditioning(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rs, body := get(t, srv, "/conditioning")
	if rs.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %v", rs.Status)
	}
	var files []string
	if err := json.Unmarshal(body, &files); err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "condi_01.csv" {
		t.Errorf("unexpected listing %v", files)
	}

	rs, body = get(t, srv, "/conditioning/condi_01.csv/metadata")
	if rs.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %v", rs.Status)
	}
	md := map[string]string{}
	if err := json.Unmarshal(body, &md); err != nil {
		t.Fatal(err)
	}
	if md["Consigne"] != "30" || len(md) != 1 {
		t.Errorf("unexpected metadata %v", md)
	}
}

func TestRefresh(t *testing.T) {
	srv, _, syncer := newTestServer(t)
	rs, err := srv.Client().Post(srv.URL+"/refresh", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Body.Close()
	if rs.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %v", rs.Status)
	}
	got := map[string]refreshResult{}
	if err := json.NewDecoder(rs.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if syncer.calls != 1 {
		t.Errorf("wanted one sync run got %v", syncer.calls)
	}
	fast := got["fast"]
	if len(fast.Copied) != 1 || fast.Failed["shot_14_1.dat"] != "timeout" {
		t.Errorf("unexpected refresh result %+v", fast)
	}

	getRs, _ := get(t, srv, "/refresh")
	if getRs.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /refresh: wanted 405 got %v", getRs.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t)
	get(t, srv, "/shots/12")
	rs, body := get(t, srv, "/metrics")
	if rs.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %v", rs.Status)
	}
	if !bytes.Contains(body, []byte("icrh_decoded_records_total")) {
		t.Errorf("decode counter missing from metrics")
	}
}
