// Package common holds helpers shared by the murl commands: progress bars,
// error printing and help output.
package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// VersionCmdStr is printed by the version command. Execute fills it in.
var VersionCmdStr string

var (
	showAppHelpAndExit = cli.ShowAppHelpAndExit
	showCommandHelp    = cli.ShowCommandHelp
)

// NewFetchBar adds a bar tracking the bytes received for one URL. limit is
// the payload capacity of the URL's buffer; the bar is completed or aborted
// by FinishBar once the transfer reaches a terminal state.
func NewFetchBar(p *mpb.Progress, name string, limit int64) *mpb.Bar {
	barStyle := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	return p.New(limit,
		barStyle,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.OnAbort(
				decor.OnComplete(decor.Current(decor.SizeB1024(0), "% .2f"), "done"),
				"failed",
			),
		),
	)
}

// FinishBar settles bar at its current position, completed or aborted.
func FinishBar(bar *mpb.Bar, ok bool) {
	if bar.Completed() || bar.Aborted() {
		return
	}
	if ok {
		bar.SetTotal(-1, true)
		return
	}
	bar.Abort(false)
}

// Help prints the application help, or the help of the command named by
// the first argument.
func Help(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" || arg == "help" {
		fmt.Printf("%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	}
	if err := showCommandHelp(ctx, arg); err != nil {
		return PrintErrWithHelp(ctx, err)
	}
	return nil
}

// GetVersion prints VersionCmdStr.
func GetVersion(ctx *cli.Context) error {
	fmt.Println(VersionCmdStr)
	return nil
}

// PrintRuntimeErr reports a failure of action while running cmd. ctx may
// be nil.
func PrintRuntimeErr(ctx *cli.Context, cmd, action string, err error) {
	if err == nil {
		fmt.Println("err is nil", "[", cmd, "|", action, "]")
		return
	}
	name := os.Args[0]
	if ctx != nil {
		name = ctx.App.HelpName
	}
	fmt.Printf("%s: %s[%s]: %s\n", name, cmd, action, err.Error())
}

// PrintErrWithCmdHelp prints err followed by the current command's help.
func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(ctx, err, func() {
		if err := showCommandHelp(ctx, ctx.Command.Name); err != nil {
			fmt.Println(err.Error())
		}
	})
}

// PrintErrWithHelp prints err followed by the application help and exits
// with status 1.
func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(ctx, err, func() {
		showAppHelpAndExit(ctx, 1)
	})
}

func printErrWithCallback(ctx *cli.Context, err error, callback func()) error {
	if err == nil {
		return nil
	}
	estr := strings.ToLower(err.Error())
	switch {
	case estr == "flag: help requested":
		return Help(ctx)
	case strings.HasSuffix(estr, "-version"), strings.HasSuffix(estr, "-v"):
		return GetVersion(ctx)
	}
	fmt.Printf("%s: %s\n\n", ctx.App.HelpName, err.Error())
	callback()
	return nil
}

// UsageErrorCallback is the OnUsageError hook for the app and its commands.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name != "" {
		return PrintErrWithCmdHelp(ctx, err)
	}
	return PrintErrWithHelp(ctx, err)
}

// Beaut centers s in a field n wide. An odd remainder goes to the right.
func Beaut(s string, n int) string {
	x := n - len(s)
	if x <= 0 {
		return s
	}
	pad := strings.Repeat(" ", x/2)
	b := pad + s + pad
	if x%2 != 0 {
		b += " "
	}
	return b
}

// Shorten cuts s to at most n bytes, marking the cut with "..".
func Shorten(s string, n int) string {
	if len(s) <= n || n < 3 {
		return s
	}
	return s[:n-2] + ".."
}
