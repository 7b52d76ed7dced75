package cmd

const DESCRIPTION = `
murl fetches many URLs at once over a single event loop. Every
URL gets a fixed-size buffer and a timeout, and the whole batch
shares one deadline, so a slow host can never hold up the rest.
`

const (
	FetchDescription = `The fetch command registers every URL, drives all of them
in one pass and returns by the deadline. Transfers still
running when it passes are reported as timed out.

URLs beyond --capacity are fetched in further passes of
the same size.

Example:
        murl fetch https://domain.com/a https://domain.com/b
        murl fetch -i urls.txt --deadline 5s -d ./out

`
	PerformDescription = `The perform command drives the URLs in short passes and
shows a progress bar per URL, until every transfer has
finished or the overall --deadline is used up. Each
transfer keeps its own --timeout.

Example:
        murl perform --tick 200ms -i urls.txt

`
	GetDescription = `The get command fetches a single URL without the scheduler
and writes the body to the file named by --output, or to
standard output.

Example:
        murl get https://domain.com/file.txt -o file.txt

`
	HistoryDescription = `The history command lists recorded runs. Pass a run ID to
see the outcome of every URL in that run.

Example:
        murl history
        murl history <run id>
        murl history --clear

`
)
