package judgeconn

import (
	"time"

	"judge_engine/judge/tester"
)

// SubmitRequest asks the engine to judge one solution. FileName is
// optional, its extension is kept on the stored source so that compilers
// which care about extensions see the right one.
type SubmitRequest struct {
	Problem  string `json:"problem" binding:"required"`
	Language string `json:"language" binding:"required"`
	Source   string `json:"source" binding:"required"`
	FileName string `json:"fileName"`
}

type SubmitResponse struct {
	ID string `json:"id"`
}

// Run mirrors the stored run record of the engine. Report is present once
// the run finished successfully.
type Run struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Problem   string         `json:"problem"`
	Language  string         `json:"language"`
	Status    string         `json:"status"`
	Overall   string         `json:"overall,omitempty"`
	Error     string         `json:"error,omitempty"`
	Verdicts  []string       `json:"verdicts,omitempty"`
	Report    *tester.Report `json:"report"`
}

// TrialRequest runs a solution once against caller supplied input, without
// checking or persistence.
type TrialRequest struct {
	Problem  string `json:"problem" binding:"required"`
	Language string `json:"language" binding:"required"`
	Source   string `json:"source" binding:"required"`
	FileName string `json:"fileName"`
	Input    string `json:"input"`
}

// GenerateTestsRequest produces Count tests with the problem generator.
// Mode selects between appending to and replacing the category, append when
// empty. Category defaults to system.
type GenerateTestsRequest struct {
	Category string `json:"category"`
	Count    int    `json:"count" binding:"required"`
	Mode     string `json:"mode"`
}

type GenerateTestsResponse struct {
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Warnings  []string `json:"warnings,omitempty"`
	Replaced  bool     `json:"replaced"`
}

type ValidateInputRequest struct {
	Input string `json:"input" binding:"required"`
}

// AddTestRequest inserts a handcrafted test. The answer is produced by the
// reference solution. Category defaults to system.
type AddTestRequest struct {
	Category string `json:"category"`
	Input    string `json:"input" binding:"required"`
}

type AddTestResponse struct {
	Number int `json:"number"`
}

// DeleteTestsRequest removes the numbered tests, the whole category when
// Numbers is empty. Category defaults to system.
type DeleteTestsRequest struct {
	Category string `json:"category"`
	Numbers  []int  `json:"numbers"`
}

type DeleteTestsResponse struct {
	Deleted int `json:"deleted"`
}

// EngineStatus is the health summary of one engine instance.
type EngineStatus struct {
	QueueSize     int     `json:"queueSize"`
	ActiveRuns    int     `json:"activeRuns"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}
