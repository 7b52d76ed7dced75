package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/urfave/cli"
	"github.com/warpdl/murl/cmd/common"
	shared "github.com/warpdl/murl/common"
	"github.com/warpdl/murl/pkg/logger"
	"github.com/warpdl/murl/pkg/murl"
)

// setup resolves the flags shared by fetch and perform into a runner.
func setup(ctx *cli.Context, cmd string) (*runner, []string, logger.Logger, bool) {
	urls, parsed, err := collectURLs(ctx.Args())
	if err != nil {
		common.PrintRuntimeErr(ctx, cmd, "input_file", err)
		return nil, nil, nil, false
	}
	if len(urls) == 0 {
		if ctx.Command.Name == "" {
			common.Help(ctx)
			return nil, nil, nil, false
		}
		common.PrintErrWithCmdHelp(ctx, errors.New("no url provided"))
		return nil, nil, nil, false
	}
	if parsed != nil {
		for _, inv := range parsed.InvalidLines {
			fmt.Printf("skipping line %d: %s (%s)\n", inv.LineNumber, inv.Content, inv.Reason)
		}
	}
	size, err := parseBufferSize(bufferSize)
	if err != nil {
		common.PrintErrWithCmdHelp(ctx, err)
		return nil, nil, nil, false
	}
	cookie, err := ParseCookieFlags(ctx.StringSlice("cookie"))
	if err != nil {
		common.PrintErrWithCmdHelp(ctx, err)
		return nil, nil, nil, false
	}
	l, err := newLogger()
	if err != nil {
		common.PrintRuntimeErr(ctx, cmd, "new_logger", err)
		return nil, nil, nil, false
	}
	r, err := newRunner(&runnerOpts{
		Capacity:   capacity,
		BufferSize: size,
		Timeout:    timeout,
		Cookie:     cookie,
		OutputDir:  outputDir,
		Fs:         appFs,
		Log:        l,
		Sched: murl.Options{
			UserAgent:    getUserAgent(userAgent),
			Proxy:        proxyURL,
			MaxRedirects: maxRedirects,
		},
	})
	if err != nil {
		l.Close()
		common.PrintRuntimeErr(ctx, cmd, "new_context", err)
		return nil, nil, nil, false
	}
	return r, urls, l, true
}

func fetch(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	r, urls, l, ok := setup(ctx, "fetch")
	if !ok {
		return nil
	}
	defer l.Close()
	defer r.close()

	run := &shared.Run{ID: uuid.NewString(), Mode: shared.ModeFetch, Started: time.Now()}
	for _, batch := range waves(urls, capacity) {
		items, err := r.wave(batch, func(c *murl.Context) error {
			return c.RunOnce(deadline)
		})
		if items == nil {
			common.PrintRuntimeErr(ctx, "fetch", "run", err)
			return nil
		}
		if err != nil {
			l.Info("pass over %d urls: %s", len(batch), murl.Code(err))
		}
		run.Items = append(run.Items, items...)
	}
	run.Duration = time.Since(run.Started)
	run.Result = resultOf(run.Items)
	record(l, run)
	printRun(run)
	return nil
}

func printRun(run *shared.Run) {
	var total uint64
	for _, it := range run.Items {
		line := fmt.Sprintf("[%s] %s (%s", it.Status, it.URL, humanize.IBytes(uint64(it.Bytes)))
		if it.ResponseCode != 0 {
			line += fmt.Sprintf(", HTTP %d", it.ResponseCode)
		}
		line += ")"
		if it.Error != "" && it.Status != murl.SlotCompletedOK.String() {
			line += ": " + it.Error
		}
		if it.SavedTo != "" {
			line += " -> " + it.SavedTo
		}
		fmt.Println(line)
		total += uint64(it.Bytes)
	}
	fmt.Printf("\n%d urls, %s received in %s: %s (run %s)\n",
		len(run.Items), humanize.IBytes(total), run.Duration.Round(time.Millisecond), run.Result, run.ID)
}
