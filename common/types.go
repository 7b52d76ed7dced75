package common

import "time"

// Mode names how a run drove its transfers.
type Mode string

const (
	ModeFetch   Mode = "fetch"
	ModePerform Mode = "perform"
	ModeGet     Mode = "get"
)

// FetchResult is the outcome of one URL within a run.
type FetchResult struct {
	URL          string `json:"url"`
	Status       string `json:"status"`
	Bytes        int    `json:"bytes"`
	ResponseCode int    `json:"response_code,omitempty"`
	Error        string `json:"error,omitempty"`
	SavedTo      string `json:"saved_to,omitempty"`
}

// Run is one invocation of a fetch command.
type Run struct {
	ID       string         `json:"id"`
	Mode     Mode           `json:"mode"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
	Result   string         `json:"result"`
	Items    []*FetchResult `json:"items,omitempty"`
}

// Failed reports how many items did not complete cleanly.
func (r *Run) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Status != "completed" {
			n++
		}
	}
	return n
}
