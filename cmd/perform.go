package cmd

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/warpdl/murl/cmd/common"
	shared "github.com/warpdl/murl/common"
	"github.com/warpdl/murl/pkg/murl"
)

var barOutput io.Writer = os.Stdout

func perform(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	r, urls, l, ok := setup(ctx, "perform")
	if !ok {
		return nil
	}
	defer l.Close()
	defer r.close()

	run := &shared.Run{ID: uuid.NewString(), Mode: shared.ModePerform, Started: time.Now()}
	budgetEnd := run.Started.Add(deadline)
	p := mpb.New(mpb.WithOutput(barOutput), mpb.WithWidth(40))
	for _, batch := range waves(urls, capacity) {
		items, err := r.wave(batch, func(c *murl.Context) error {
			return drivePasses(c, batch, p, budgetEnd)
		})
		if items == nil {
			p.Wait()
			common.PrintRuntimeErr(ctx, "perform", "run", err)
			return nil
		}
		if err != nil {
			l.Warning("pass over %d urls: %v", len(batch), err)
		}
		run.Items = append(run.Items, items...)
	}
	p.Wait()
	run.Duration = time.Since(run.Started)
	run.Result = resultOf(run.Items)
	record(l, run)
	printRun(run)
	return nil
}

// drivePasses calls the repeatable driver until nothing is running or the
// overall budget ends, updating one bar per URL after every pass.
func drivePasses(c *murl.Context, urls []string, p *mpb.Progress, budgetEnd time.Time) error {
	bars := make(map[string]*mpb.Bar, len(urls))
	for _, u := range urls {
		if out, err := c.Output(u); err == nil {
			bars[u] = common.NewFetchBar(p, common.Shorten(u, 40), int64(out.Capacity()))
		}
	}
	defer func() {
		// anything left unsettled is abandoned
		for _, bar := range bars {
			common.FinishBar(bar, false)
		}
	}()
	for {
		pass := tick
		if left := time.Until(budgetEnd); left < pass {
			pass = left
		}
		running, err := c.RunRepeatable(pass)
		if err != nil {
			return err
		}
		for u, bar := range bars {
			info, err := c.Info(u)
			if err != nil {
				continue
			}
			bar.SetCurrent(int64(info.Written))
			if info.Status != murl.SlotPending {
				common.FinishBar(bar, info.Status == murl.SlotCompletedOK)
				delete(bars, u)
			}
		}
		if running == 0 || !time.Now().Before(budgetEnd) {
			return nil
		}
	}
}
