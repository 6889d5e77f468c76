package model

import "time"

// LoadStatus represents the state of a load run.
type LoadStatus string

const (
	LoadStatusRunning  LoadStatus = "running"
	LoadStatusComplete LoadStatus = "complete"
	LoadStatusFailed   LoadStatus = "failed"
)

// LoadResult holds the row counts of a successful load.
type LoadResult struct {
	Children          int      `json:"children" yaml:"children"`
	RiskRows          int      `json:"risk_rows" yaml:"risk_rows"`
	ParticipationRows int      `json:"participation_rows" yaml:"participation_rows"`
	Records           int      `json:"records" yaml:"records"`
	Degraded          []string `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// LoadRun is one entry of the load audit log.
type LoadRun struct {
	ID         string      `json:"id" yaml:"id"`
	Source     string      `json:"source" yaml:"source"`
	Status     LoadStatus  `json:"status" yaml:"status"`
	Result     *LoadResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}
