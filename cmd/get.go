package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/warpdl/murl/cmd/common"
	shared "github.com/warpdl/murl/common"
	"github.com/warpdl/murl/pkg/murl"
)

func get(ctx *cli.Context) error {
	url := ctx.Args().First()
	if url == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no url provided"))
	} else if url == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	size, err := parseBufferSize(bufferSize)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	cookie, err := ParseCookieFlags(ctx.StringSlice("cookie"))
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	l, err := newLogger()
	if err != nil {
		common.PrintRuntimeErr(ctx, "get", "new_logger", err)
		return nil
	}
	defer l.Close()

	buf := make([]byte, size)
	start := time.Now()
	ferr := murl.FetchOne(context.Background(), url, buf, timeout, cookie)
	out, _ := murl.NewOutput(buf)

	item := &shared.FetchResult{URL: url, Status: murl.SlotCompletedOK.String(), Bytes: int(out.Len())}
	switch {
	case errors.Is(ferr, murl.ErrTimeout):
		item.Status = murl.SlotTimedOut.String()
		item.Error = ferr.Error()
	case errors.Is(ferr, murl.ErrOverflow):
		item.Status = murl.SlotOverflowed.String()
		item.Error = ferr.Error()
	}
	run := &shared.Run{
		ID:       uuid.NewString(),
		Mode:     shared.ModeGet,
		Started:  start,
		Duration: time.Since(start),
		Result:   murl.Code(ferr).String(),
		Items:    []*shared.FetchResult{item},
	}

	if outputFile == "" {
		os.Stdout.Write(out.Payload())
	} else if err := afero.WriteFile(appFs, outputFile, out.Payload(), 0644); err != nil {
		common.PrintRuntimeErr(ctx, "get", "write", err)
	} else {
		item.SavedTo = outputFile
		fmt.Fprintf(os.Stderr, "%s: %s written to %s\n", url, humanize.IBytes(uint64(out.Len())), outputFile)
	}
	record(l, run)
	if ferr != nil {
		l.Warning("%s: %v", url, ferr)
	}
	return nil
}
