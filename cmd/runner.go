package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/murl/common"
	"github.com/warpdl/murl/pkg/logger"
	"github.com/warpdl/murl/pkg/murl"
)

// appFs is where input files are read and payloads saved.
var appFs afero.Fs = afero.NewOsFs()

func newLogger() (logger.Logger, error) {
	console := logger.NewStandardLogger(log.New(os.Stderr, "murl: ", 0))
	console.SetVerbose(verbose)
	if logFile == "" {
		return console, nil
	}
	fl, err := logger.NewFileLogger(logFile)
	if err != nil {
		return nil, err
	}
	fl.SetVerbose(verbose)
	return logger.NewMultiLogger(console, fl), nil
}

// collectURLs gathers URLs from the input file and the arguments, in that
// order, dropping repeats.
func collectURLs(args []string) ([]string, *ParseResult, error) {
	var (
		urls   []string
		parsed *ParseResult
	)
	seen := make(map[string]struct{})
	if inputFile != "" {
		var err error
		parsed, err = ParseInputFile(appFs, inputFile)
		if err != nil && !(errors.Is(err, ErrInputFileEmpty) && len(args) > 0) {
			return nil, parsed, err
		}
		for _, u := range parsed.URLs {
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	for _, u := range args {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls, parsed, nil
}

// waves splits urls into consecutive groups of at most size.
func waves(urls []string, size int) [][]string {
	var out [][]string
	for len(urls) > size {
		out = append(out, urls[:size])
		urls = urls[size:]
	}
	if len(urls) > 0 {
		out = append(out, urls)
	}
	return out
}

// runner drives batches of URLs through one scheduler context, resetting
// it between waves.
type runner struct {
	ctx     *murl.Context
	log     logger.Logger
	fs      afero.Fs
	bufSize int
	timeout time.Duration
	cookie  string
	outDir  string
	saved   int
}

type runnerOpts struct {
	Capacity   int
	BufferSize int
	Timeout    time.Duration
	Cookie     string
	OutputDir  string
	Fs         afero.Fs
	Log        logger.Logger
	Sched      murl.Options
}

func newRunner(opts *runnerOpts) (*runner, error) {
	sched := opts.Sched
	sched.Logger = opts.Log
	c, err := murl.NewContext(opts.Capacity, &sched)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir != "" {
		if err := opts.Fs.MkdirAll(opts.OutputDir, 0755); err != nil {
			c.Destroy()
			return nil, err
		}
	}
	return &runner{
		ctx:     c,
		log:     opts.Log,
		fs:      opts.Fs,
		bufSize: opts.BufferSize,
		timeout: opts.Timeout,
		cookie:  opts.Cookie,
		outDir:  opts.OutputDir,
	}, nil
}

func (r *runner) close() error {
	return r.ctx.Destroy()
}

// wave registers urls, lets drive run the scheduler, then collects and
// saves every outcome. Slots are emptied afterwards.
func (r *runner) wave(urls []string, drive func(c *murl.Context) error) ([]*common.FetchResult, error) {
	results := make([]*common.FetchResult, len(urls))
	var registered []int
	for i, u := range urls {
		if err := r.ctx.Register(u, make([]byte, r.bufSize), r.timeout, r.cookie); err != nil {
			results[i] = &common.FetchResult{URL: u, Status: "rejected", Error: err.Error()}
			r.log.Warning("register %s: %v", u, err)
			continue
		}
		registered = append(registered, i)
	}
	driveErr := drive(r.ctx)
	for _, i := range registered {
		res, err := r.collect(urls[i])
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	if err := r.ctx.Reset(); err != nil {
		return nil, err
	}
	return results, driveErr
}

func (r *runner) collect(u string) (*common.FetchResult, error) {
	info, err := r.ctx.Info(u)
	if err != nil {
		return nil, err
	}
	out, err := r.ctx.Output(u)
	if err != nil {
		return nil, err
	}
	res := &common.FetchResult{
		URL:          u,
		Status:       info.Status.String(),
		Bytes:        int(out.Len()),
		ResponseCode: info.ResponseCode,
		Error:        info.Error,
	}
	if r.outDir != "" && info.Status == murl.SlotCompletedOK {
		name := filepath.Join(r.outDir, outputName(r.saved, u))
		if err := afero.WriteFile(r.fs, name, out.Payload(), 0644); err != nil {
			r.log.Error("save %s: %v", u, err)
		} else {
			res.SavedTo = name
			r.saved++
		}
	}
	return res, nil
}

// outputName derives a file name from the URL path, prefixed with a
// sequence number so equal base names never collide.
func outputName(seq int, raw string) string {
	name := "index.html"
	if u, err := url.Parse(raw); err == nil {
		if b := path.Base(u.Path); b != "." && b != "/" {
			name = b
		}
	}
	return fmt.Sprintf("%03d-%s", seq+1, name)
}

// resultOf folds per-URL states into the status name stored with a run.
func resultOf(items []*common.FetchResult) string {
	var timedOut, overflowed, other bool
	for _, it := range items {
		switch it.Status {
		case murl.SlotCompletedOK.String():
		case murl.SlotTimedOut.String(), murl.SlotPending.String():
			timedOut = true
		case murl.SlotOverflowed.String():
			overflowed = true
		default:
			other = true
		}
	}
	switch {
	case timedOut && overflowed:
		return murl.StatusMulti.String()
	case timedOut:
		return murl.StatusTimeout.String()
	case overflowed:
		return murl.StatusOverflow.String()
	case other:
		return "incomplete"
	}
	return murl.StatusOK.String()
}

// record stores run unless history is disabled. Failures are logged only.
func record(l logger.Logger, run *common.Run) {
	if noHistory {
		return
	}
	store, err := openHistory()
	if err != nil {
		l.Warning("history: %v", err)
		return
	}
	defer store.Close()
	if err := store.Record(run); err != nil {
		l.Warning("history: %v", err)
	}
}
