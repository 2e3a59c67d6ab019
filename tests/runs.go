package tests

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"

	"judge_engine/common/connectors/judgeconn"
	"judge_engine/common/db/models"
	"judge_engine/lib/logger"
)

type runTest struct {
	id string

	problem string
	source  string

	wantOverall string

	result *judgeconn.Run
}

func (h *engineHolder) newRun(problem string, source string, wantOverall string) {
	r := &runTest{
		problem:     problem,
		source:      source,
		wantOverall: wantOverall,
	}

	id, err := h.client.SubmitRun(context.Background(), &judgeconn.SubmitRequest{
		Problem:  r.problem,
		Language: "sh",
		Source:   r.source,
		FileName: "solution.sh",
	})
	require.NoError(h.t, err)
	r.id = id

	h.runs = append(h.runs, r)
}

func (h *engineHolder) waitRuns() {
	for _, r := range h.runs {
		h.verifyRun(r)
	}
	h.runs = nil
}

func (h *engineHolder) verifyRun(r *runTest) {
	h.waitJudged(r)

	require.Equal(h.t, string(models.RunFinished), r.result.Status)
	require.Equal(h.t, r.wantOverall, r.result.Overall)
	require.NotNil(h.t, r.result.Report)
	require.Equal(h.t, r.wantOverall, r.result.Report.Overall)

	logger.Trace("Verified run %s", r.id)
}

func (h *engineHolder) waitJudged(r *runTest) {
	deadline := time.Now().Add(30 * time.Second)
	for {
		run, err := h.client.GetRun(context.Background(), r.id)
		require.NoError(h.t, err)

		switch run.Status {
		case string(models.RunQueued), string(models.RunRunning):
		default:
			r.result = run
			return
		}

		if time.Now().After(deadline) {
			h.t.Fatalf("run %s still %s after 30s", r.id, run.Status)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
