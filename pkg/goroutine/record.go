package goroutine

// Record is one goroutine parsed from a dump.
type Record struct {
	ID          int      `json:"id"`
	State       string   `json:"state"`
	WaitMinutes int      `json:"wait_minutes"`
	TopFunction string   `json:"top_function"`
	Frames      []string `json:"frames"`

	// CreatedByFunction is the raw (non-canonical) name from the
	// "created by" line, empty when the line is missing.
	CreatedByFunction string `json:"created_by_function,omitempty"`
	// CreatedByTask is the id of the spawning goroutine. It is only
	// meaningful when HasCreatedByTask is set.
	CreatedByTask    int  `json:"created_by_goroutine,omitempty"`
	HasCreatedByTask bool `json:"-"`
}
