package api

type UnusedImages struct {
	Count   int          `json:"count"`
	IDs     []int64      `json:"ids"`
	Unknown []ImageError `json:"unknown"`
}

type ImageError struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

type SweepRequest struct {
	Delete bool `json:"delete"`
}

type SweepResult struct {
	Unused  int          `json:"unused"`
	Deleted int          `json:"deleted"`
	Failed  []ImageError `json:"failed"`
}

type ScanProgress struct {
	Total   int `json:"total"`
	Checked int `json:"checked"`
	Unused  int `json:"unused"`
	Unknown int `json:"unknown"`
}

type DeleteReport struct {
	Deleted []int64      `json:"deleted"`
	Skipped []int64      `json:"skipped"`
	Failed  []ImageError `json:"failed"`
}

type ScanJob struct {
	ID         string        `json:"id"`
	State      string        `json:"state"`
	Progress   ScanProgress  `json:"progress"`
	Result     *UnusedImages `json:"result,omitempty"`
	Report     *DeleteReport `json:"report,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  string        `json:"started_at"`
	FinishedAt string        `json:"finished_at,omitempty"`
}

type Error struct {
	Error string `json:"error"`
}
