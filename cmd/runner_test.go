package cmd

import (
	"reflect"
	"testing"

	"github.com/spf13/afero"
	shared "github.com/warpdl/murl/common"
)

func TestWaves(t *testing.T) {
	urls := []string{"a", "b", "c", "d", "e"}
	got := waves(urls, 2)
	want := [][]string{{"a", "b"}, {"c", "d"}, {"e"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("waves = %v, want %v", got, want)
	}
	if waves(nil, 3) != nil {
		t.Error("no urls should give no waves")
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		seq  int
		url  string
		want string
	}{
		{0, "http://example.com/files/report.pdf", "001-report.pdf"},
		{1, "http://example.com/", "002-index.html"},
		{2, "http://example.com", "003-index.html"},
		{41, "http://example.com/a/b?x=1", "042-b"},
	}
	for _, tt := range tests {
		if got := outputName(tt.seq, tt.url); got != tt.want {
			t.Errorf("outputName(%d, %q) = %q, want %q", tt.seq, tt.url, got, tt.want)
		}
	}
}

func TestResultOf(t *testing.T) {
	item := func(status string) *shared.FetchResult { return &shared.FetchResult{Status: status} }
	tests := []struct {
		name  string
		items []*shared.FetchResult
		want  string
	}{
		{"all ok", []*shared.FetchResult{item("completed"), item("completed")}, "ok"},
		{"timeout", []*shared.FetchResult{item("completed"), item("timed out")}, "timeout"},
		{"pending counts as timeout", []*shared.FetchResult{item("pending")}, "timeout"},
		{"overflow", []*shared.FetchResult{item("overflowed")}, "overflow"},
		{"both", []*shared.FetchResult{item("overflowed"), item("timed out")}, "timeout and overflow"},
		{"rejected", []*shared.FetchResult{item("rejected")}, "incomplete"},
	}
	for _, tt := range tests {
		if got := resultOf(tt.items); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParseBufferSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1MiB", 1 << 20, false},
		{"64KiB", 64 << 10, false},
		{"2kB", 2000, false},
		{"100", 100, false},
		{"4", 0, true},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBufferSize(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseBufferSize(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestCollectURLs(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/list", []byte("http://a\nhttp://b\n"), 0644)
	afero.WriteFile(fs, "/empty", []byte("# none\n"), 0644)
	orig := appFs
	appFs = fs
	defer func() { appFs = orig; inputFile = "" }()

	inputFile = "/list"
	urls, parsed, err := collectURLs([]string{"http://b", "http://c"})
	if err != nil || parsed == nil {
		t.Fatalf("collectURLs: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"http://a", "http://b", "http://c"}) {
		t.Errorf("unexpected urls %v", urls)
	}

	inputFile = "/empty"
	if _, _, err := collectURLs(nil); err == nil {
		t.Error("an empty input file without arguments should fail")
	}
	urls, _, err = collectURLs([]string{"http://x"})
	if err != nil || len(urls) != 1 {
		t.Errorf("arguments should rescue an empty input file: %v %v", urls, err)
	}

	inputFile = "/missing"
	if _, _, err := collectURLs([]string{"http://x"}); err == nil {
		t.Error("a missing input file should fail")
	}
}
