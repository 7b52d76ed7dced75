package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	"github.com/warpdl/murl/common"
	"github.com/warpdl/murl/internal/history"
	"github.com/warpdl/murl/pkg/murl"
)

var (
	capacity     int
	bufferSize   string
	timeout      time.Duration
	deadline     time.Duration
	tick         time.Duration
	userAgent    string
	proxyURL     string
	maxRedirects int
	outputDir    string
	outputFile   string
	inputFile    string
	historyDB    string
	noHistory    bool
	logFile      string
	verbose      bool
	historyLimit int
	clearHistory bool

	cookieFlag = cli.StringSliceFlag{
		Name:  "cookie, c",
		Usage: "send a cookie with every request, as name=value (repeatable)",
	}
	bufferFlag = cli.StringFlag{
		Name:        "buffer-size, b",
		Usage:       "response buffer per URL, length header included (e.g. 64KiB, 2MB)",
		Value:       humanize.IBytes(common.DefaultBufferSize),
		Destination: &bufferSize,
	}
	timeoutFlag = cli.DurationFlag{
		Name:        "timeout, t",
		Usage:       "timeout for each transfer",
		Value:       common.DefaultTimeout,
		Destination: &timeout,
	}
	logFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "log-file",
			Usage:       "also write log output to this file",
			EnvVar:      common.LogFileEnv,
			Destination: &logFile,
		},
		cli.BoolFlag{
			Name:        "verbose",
			Usage:       "log every scheduler pass",
			EnvVar:      common.DebugEnv,
			Destination: &verbose,
		},
	}
	historyFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "history-db",
			Usage:       "path of the run history database",
			EnvVar:      common.HistoryDBEnv,
			Destination: &historyDB,
		},
	}

	schedFlags = join([]cli.Flag{
		cli.IntFlag{
			Name:        "capacity, n",
			Usage:       "number of URLs driven at once",
			Value:       common.DefaultCapacity,
			Destination: &capacity,
		},
		bufferFlag,
		timeoutFlag,
		cli.DurationFlag{
			Name:        "deadline, D",
			Usage:       "overall time budget of a pass",
			Value:       common.DefaultDeadline,
			Destination: &deadline,
		},
		cookieFlag,
		cli.StringFlag{
			Name:        "user-agent, u",
			Usage:       "User-Agent sent with every request (or one of: murl, firefox, chrome)",
			Value:       common.DefaultUserAgent,
			EnvVar:      common.UserAgentEnv,
			Destination: &userAgent,
		},
		cli.StringFlag{
			Name:        "proxy, x",
			Usage:       "route requests through an http, https or socks5 proxy",
			EnvVar:      common.ProxyEnv,
			Destination: &proxyURL,
		},
		cli.IntFlag{
			Name:        "max-redirects",
			Usage:       "follow up to this many redirects (0 returns 3xx responses as-is)",
			Destination: &maxRedirects,
		},
		cli.StringFlag{
			Name:        "input-file, i",
			Usage:       "read URLs from a file, one per line",
			Destination: &inputFile,
		},
		cli.StringFlag{
			Name:        "output-dir, d",
			Usage:       "save every completed payload into this directory",
			Destination: &outputDir,
		},
		cli.BoolFlag{
			Name:        "no-history",
			Usage:       "do not record the run",
			Destination: &noHistory,
		},
	}, historyFlags, logFlags)

	fetchFlags = schedFlags

	performFlags = join(schedFlags, []cli.Flag{
		cli.DurationFlag{
			Name:        "tick",
			Usage:       "length of each scheduler pass",
			Value:       250 * time.Millisecond,
			Destination: &tick,
		},
	})

	getFlags = join([]cli.Flag{
		bufferFlag,
		timeoutFlag,
		cookieFlag,
		cli.StringFlag{
			Name:        "output, o",
			Usage:       "write the body to this file instead of standard output",
			Destination: &outputFile,
		},
		cli.BoolFlag{
			Name:        "no-history",
			Usage:       "do not record the run",
			Destination: &noHistory,
		},
	}, historyFlags, logFlags)

	historyCmdFlags = join([]cli.Flag{
		cli.IntFlag{
			Name:        "limit, l",
			Usage:       "show at most this many runs (0 shows all)",
			Value:       20,
			Destination: &historyLimit,
		},
		cli.BoolFlag{
			Name:        "clear",
			Usage:       "delete every recorded run",
			Destination: &clearHistory,
		},
	}, historyFlags)
)

func join(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// parseBufferSize accepts humanized sizes such as "64KiB" or plain byte
// counts.
func parseBufferSize(s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid buffer size %q: %w", s, err)
	}
	if n < murl.HeaderSize+1 {
		return 0, fmt.Errorf("buffer size %s leaves no room for a payload", humanize.IBytes(n))
	}
	if n > 1<<31 {
		return 0, fmt.Errorf("buffer size %s is too large", humanize.IBytes(n))
	}
	return int(n), nil
}

func openHistory() (*history.Store, error) {
	path := historyDB
	if path == "" {
		var err error
		if path, err = common.HistoryPath(); err != nil {
			return nil, err
		}
	}
	return history.Open(path)
}
