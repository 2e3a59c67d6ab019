package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"judge_engine/judge/tester"
)

// RunStatus is the lifecycle state of one judging run.
type RunStatus string

const (
	// RunQueued means the run waits for a judging worker.
	RunQueued RunStatus = "queued"
	// RunRunning means a worker is judging the run.
	RunRunning RunStatus = "running"
	// RunFinished means judging produced a report.
	RunFinished RunStatus = "finished"
	// RunError means judging failed before producing a report.
	RunError RunStatus = "error"
)

// Report stores the full judging report as one JSON column. The zero value
// is the missing report of a run which did not finish.
type Report struct {
	*tester.Report
}

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Report)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		r.Report = nil
		return nil
	}
	r.Report = new(tester.Report)
	return json.Unmarshal(data, r.Report)
}

func (r Report) Value() (driver.Value, error) {
	if r.Report == nil {
		return nil, nil
	}
	return json.Marshal(r.Report)
}

func (r *Report) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		r.Report = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported column type while scanning Report")
	}
	if len(data) == 0 {
		return nil
	}
	r.Report = new(tester.Report)
	return json.Unmarshal(data, r.Report)
}

func (Report) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql", "sqlite":
		return "JSON"
	case "postgres":
		return "JSONB"
	}
	return ""
}

// Run is one judging request and its outcome.
type Run struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Problem  string `json:"problem"`
	Language string `json:"language"`

	Status RunStatus `gorm:"index" json:"status"`

	// Overall is the labeled overall verdict of a finished run, for example
	// "AC" or "WA on sample 3".
	Overall string `json:"overall,omitempty"`
	// Error describes why a run ended in the error status.
	Error string `json:"error,omitempty"`

	// Verdicts is the per test verdict sequence in judging order, kept as
	// its own column so run listings do not unpack the report JSON.
	Verdicts pq.StringArray `gorm:"type:text[]" json:"verdicts,omitempty"`

	Report Report `json:"report,omitempty"`
}

// FillVerdicts derives the verdict column from a finished report.
func (r *Run) FillVerdicts(report *tester.Report) {
	r.Verdicts = make(pq.StringArray, 0, len(report.Tests))
	for _, test := range report.Tests {
		r.Verdicts = append(r.Verdicts, string(test.Verdict))
	}
}
