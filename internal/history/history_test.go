package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/warpdl/murl/common"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	started := time.Unix(1700000000, 123)
	run := &common.Run{
		Mode:     common.ModeFetch,
		Started:  started,
		Duration: 1500 * time.Millisecond,
		Result:   "timeout",
		Items: []*common.FetchResult{
			{URL: "http://a", Status: "completed", Bytes: 10, ResponseCode: 200, SavedTo: "a.out"},
			{URL: "http://b", Status: "timed out", Error: "deadline of 2s exhausted"},
		},
	}
	if err := s.Record(run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		t.Fatalf("run should get a uuid, got %q", run.ID)
	}

	got, err := s.Get(run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Mode != common.ModeFetch || !got.Started.Equal(started) || got.Duration != run.Duration || got.Result != "timeout" {
		t.Errorf("unexpected run %+v", got)
	}
	if len(got.Items) != 2 || *got.Items[0] != *run.Items[0] || *got.Items[1] != *run.Items[1] {
		t.Errorf("items did not round trip: %+v", got.Items)
	}
	if got.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", got.Failed())
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Now()
	for i := 0; i < 3; i++ {
		run := &common.Run{
			ID:      string(rune('a' + i)),
			Mode:    common.ModePerform,
			Started: base.Add(time.Duration(i) * time.Minute),
			Result:  "ok",
		}
		if err := s.Record(run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := s.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "c" || runs[2].ID != "a" {
		t.Fatalf("unexpected order: %v %v %v", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	runs, err = s.List(2)
	if err != nil || len(runs) != 2 {
		t.Fatalf("List(2) = %d runs, %v", len(runs), err)
	}
}

func TestRecord_DuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	run := &common.Run{ID: "dup", Mode: common.ModeGet, Started: time.Now(), Result: "ok"}
	if err := s.Record(run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(run); err == nil {
		t.Error("expected duplicate run ID to fail")
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	run := &common.Run{
		Mode:    common.ModeGet,
		Started: time.Now(),
		Result:  "ok",
		Items:   []*common.FetchResult{{URL: "http://a", Status: "completed"}},
	}
	if err := s.Record(run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	runs, err := s.List(0)
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty history, got %d runs (%v)", len(runs), err)
	}
}
