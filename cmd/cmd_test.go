//go:build linux

package cmd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	shared "github.com/warpdl/murl/common"
	"github.com/warpdl/murl/internal/history"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/body/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.TrimPrefix(r.URL.Path, "/body/")))
	})
	mux.HandleFunc("/delay", func(w http.ResponseWriter, r *http.Request) {
		ms, _ := strconv.Atoi(r.URL.Query().Get("ms"))
		select {
		case <-r.Context().Done():
			return
		case <-time.After(time.Duration(ms) * time.Millisecond):
		}
		w.Write([]byte("done"))
	})
	mux.HandleFunc("/hang", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// runApp executes the CLI against an in-memory filesystem and returns it
// with the history database path used.
func runApp(t *testing.T, args ...string) (afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	origFs, origBars := appFs, barOutput
	appFs, barOutput = fs, io.Discard
	defer func() { appFs, barOutput = origFs, origBars }()

	db := filepath.Join(t.TempDir(), "history.db")
	t.Setenv(shared.HistoryDBEnv, db)
	if err := Execute(append([]string{"murl"}, args...), BuildArgs{Version: "test"}); err != nil {
		t.Fatalf("Execute(%v): %v", args, err)
	}
	return fs, db
}

func lastRun(t *testing.T, db string) *shared.Run {
	t.Helper()
	store, err := history.Open(db)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()
	runs, err := store.List(1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected a recorded run, got %d (%v)", len(runs), err)
	}
	run, err := store.Get(runs[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return run
}

func readFile(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestFetch_WavesSavesAndRecords(t *testing.T) {
	srv := newTestServer(t)
	fs, db := runApp(t, "fetch", "-n", "2", "-d", "/out", "-D", "5s",
		srv.URL+"/body/alpha", srv.URL+"/body/beta", srv.URL+"/body/gamma")

	for name, want := range map[string]string{
		"/out/001-alpha": "alpha",
		"/out/002-beta":  "beta",
		"/out/003-gamma": "gamma",
	} {
		if got := readFile(t, fs, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	run := lastRun(t, db)
	if run.Mode != shared.ModeFetch || run.Result != "ok" || len(run.Items) != 3 {
		t.Fatalf("unexpected run %+v", run)
	}
	for _, it := range run.Items {
		if it.Status != "completed" || it.ResponseCode != http.StatusOK || it.SavedTo == "" {
			t.Errorf("unexpected item %+v", it)
		}
	}
}

func TestFetch_DefaultActionAndInputFile(t *testing.T) {
	srv := newTestServer(t)
	fs := afero.NewMemMapFs()
	content := "# batch\n" + srv.URL + "/body/one\nftp://skipped\n" + srv.URL + "/body/one\n"
	if err := afero.WriteFile(fs, "/urls.txt", []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	origFs, origBars := appFs, barOutput
	appFs, barOutput = fs, io.Discard
	defer func() { appFs, barOutput = origFs, origBars }()
	db := filepath.Join(t.TempDir(), "history.db")

	args := []string{"murl", "--history-db", db, "-i", "/urls.txt", "-d", "/out", srv.URL + "/body/two"}
	if err := Execute(args, BuildArgs{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := readFile(t, fs, "/out/001-one"); got != "one" {
		t.Errorf("unexpected first payload %q", got)
	}
	if got := readFile(t, fs, "/out/002-two"); got != "two" {
		t.Errorf("unexpected second payload %q", got)
	}
	if run := lastRun(t, db); len(run.Items) != 2 {
		t.Errorf("expected duplicates and invalid lines dropped, got %d items", len(run.Items))
	}
}

func TestFetch_DeadlineReportsTimeout(t *testing.T) {
	srv := newTestServer(t)
	start := time.Now()
	_, db := runApp(t, "fetch", "-D", "150ms", srv.URL+"/hang", srv.URL+"/body/ok")
	if time.Since(start) > 3*time.Second {
		t.Errorf("fetch ignored its deadline, took %v", time.Since(start))
	}
	run := lastRun(t, db)
	if run.Result != "timeout" {
		t.Errorf("result %q, want timeout", run.Result)
	}
	if run.Items[0].Status != "timed out" || run.Items[1].Status != "completed" {
		t.Errorf("unexpected items %+v %+v", run.Items[0], run.Items[1])
	}
}

func TestFetch_OverflowWithSmallBuffer(t *testing.T) {
	srv := newTestServer(t)
	fs, db := runApp(t, "fetch", "-b", "8", "-d", "/out", srv.URL+"/body/much-too-long")
	run := lastRun(t, db)
	if run.Result != "overflow" || run.Items[0].Status != "overflowed" {
		t.Errorf("unexpected run %+v / %+v", run, run.Items[0])
	}
	if ok, _ := afero.Exists(fs, "/out/001-much-too-long"); ok {
		t.Error("overflowed payloads must not be saved")
	}
}

func TestFetch_NoHistory(t *testing.T) {
	srv := newTestServer(t)
	_, db := runApp(t, "fetch", "--no-history", srv.URL+"/body/x")
	store, err := history.Open(db)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()
	if runs, _ := store.List(0); len(runs) != 0 {
		t.Errorf("expected no recorded runs, got %d", len(runs))
	}
}

func TestPerform_RunsPassesUntilDone(t *testing.T) {
	srv := newTestServer(t)
	_, db := runApp(t, "perform", "--tick", "20ms", "-D", "5s",
		srv.URL+"/delay?ms=0", srv.URL+"/delay?ms=80", srv.URL+"/body/fast")
	run := lastRun(t, db)
	if run.Mode != shared.ModePerform || run.Result != "ok" {
		t.Fatalf("unexpected run %+v", run)
	}
	for _, it := range run.Items {
		if it.Status != "completed" {
			t.Errorf("unexpected item %+v", it)
		}
	}
}

func TestPerform_BudgetLeavesPending(t *testing.T) {
	srv := newTestServer(t)
	_, db := runApp(t, "perform", "--tick", "20ms", "-D", "100ms", "-t", "10s", srv.URL+"/hang")
	run := lastRun(t, db)
	if run.Items[0].Status != "pending" || run.Result != "timeout" {
		t.Errorf("unexpected run %+v / %+v", run, run.Items[0])
	}
}

func TestGet_WritesOutputFile(t *testing.T) {
	srv := newTestServer(t)
	fs, db := runApp(t, "get", "-o", "/single.txt", srv.URL+"/body/single")
	if got := readFile(t, fs, "/single.txt"); got != "single" {
		t.Errorf("unexpected payload %q", got)
	}
	run := lastRun(t, db)
	if run.Mode != shared.ModeGet || run.Result != "ok" || run.Items[0].Bytes != 6 {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestHistoryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(db)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	run := &shared.Run{
		ID:      "run-1",
		Mode:    shared.ModeFetch,
		Started: time.Now(),
		Result:  "ok",
		Items:   []*shared.FetchResult{{URL: "http://a", Status: "completed", Bytes: 3}},
	}
	if err := store.Record(run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	store.Close()

	for _, args := range [][]string{
		{"murl", "history", "--history-db", db},
		{"murl", "history", "--history-db", db, "run-1"},
		{"murl", "history", "--history-db", db, "unknown"},
		{"murl", "history", "--history-db", db, "--clear"},
	} {
		if err := Execute(args, BuildArgs{}); err != nil {
			t.Fatalf("Execute(%v): %v", args, err)
		}
	}

	store, err = history.Open(db)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()
	if runs, _ := store.List(0); len(runs) != 0 {
		t.Errorf("expected history cleared, got %d runs", len(runs))
	}
}
