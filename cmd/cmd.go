// Package cmd implements the murl command line.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/murl/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "murl",
		HelpName:              "murl",
		Usage:                 "Fetch many URLs concurrently within one deadline.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "murl <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:                   "fetch",
				Aliases:                []string{"f"},
				Usage:                  "fetch URLs in a single deadline-bounded pass",
				UsageText:              "[flags] <url>...",
				Description:            FetchDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 fetch,
				Flags:                  fetchFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:                   "perform",
				Aliases:                []string{"p"},
				Usage:                  "fetch URLs in repeated passes with progress bars",
				UsageText:              "[flags] <url>...",
				Description:            PerformDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 perform,
				Flags:                  performFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "get",
				Aliases:            []string{"g"},
				Usage:              "fetch a single URL without the scheduler",
				UsageText:          "[flags] <url>",
				Description:        GetDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             get,
				Flags:              getFlags,
			},
			{
				Name:               "history",
				Aliases:            []string{"l"},
				Usage:              "list recorded runs",
				UsageText:          "[flags] [run id]",
				Description:        HistoryDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             showHistory,
				Flags:              historyCmdFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of murl",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:                 fetch,
		Flags:                  fetchFlags,
		UseShortOptionHandling: true,
		HideHelp:               true,
		HideVersion:            true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
