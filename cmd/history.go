package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	"github.com/warpdl/murl/cmd/common"
	"github.com/warpdl/murl/internal/history"
)

func showHistory(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	store, err := openHistory()
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "open", err)
		return nil
	}
	defer store.Close()

	if clearHistory {
		if err := store.Clear(); err != nil {
			common.PrintRuntimeErr(ctx, "history", "clear", err)
			return nil
		}
		fmt.Println("murl: history cleared")
		return nil
	}
	if arg != "" {
		return showRun(ctx, store, arg)
	}

	runs, err := store.List(historyLimit)
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "list", err)
		return nil
	}
	if len(runs) == 0 {
		fmt.Println("murl: no runs recorded")
		return nil
	}
	txt := "Recorded runs:"
	txt += "\n\n--------------------------------------------------------------------------------"
	txt += "\n|                 Run ID               |  Mode   |       Started       | Result |"
	txt += "\n|--------------------------------------|---------|---------------------|--------|"
	for _, run := range runs {
		txt += fmt.Sprintf("\n|%s|%s| %s |%s|",
			common.Beaut(run.ID, 38),
			common.Beaut(string(run.Mode), 9),
			run.Started.Format("2006-01-02 15:04:05"),
			common.Beaut(common.Shorten(run.Result, 8), 8),
		)
	}
	txt += "\n--------------------------------------------------------------------------------"
	fmt.Println(txt)
	return nil
}

func showRun(ctx *cli.Context, store *history.Store, id string) error {
	run, err := store.Get(id)
	if errors.Is(err, history.ErrRunNotFound) {
		fmt.Printf("murl: no run with id %s\n", id)
		return nil
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "get", err)
		return nil
	}
	fmt.Printf("Run %s (%s), started %s, took %s: %s\n\n",
		run.ID, run.Mode, humanize.Time(run.Started), run.Duration.Round(time.Millisecond), run.Result)
	for _, it := range run.Items {
		fmt.Printf("  [%s] %s %s", it.Status, it.URL, humanize.IBytes(uint64(it.Bytes)))
		if it.Error != "" {
			fmt.Printf(" (%s)", it.Error)
		}
		fmt.Println()
	}
	fmt.Printf("\n%d of %d urls did not complete\n", run.Failed(), len(run.Items))
	return nil
}
