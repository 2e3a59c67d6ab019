package server

import (
	"github.com/go-resty/resty/v2"

	"judge_engine/common/db/models"
	"judge_engine/lib/logger"
)

// resultCallback posts finished run records to a configured URL. Delivery
// is attempted once, a lost callback never blocks or fails the run itself.
type resultCallback struct {
	client *resty.Client
	url    string
}

func newResultCallback(url string) *resultCallback {
	return &resultCallback{
		client: resty.New(),
		url:    url,
	}
}

func (cb *resultCallback) post(run *models.Run) {
	r := cb.client.R()
	r.SetBody(run)

	resp, err := r.Post(cb.url)
	if err != nil {
		logger.Warn("Can not deliver result of run %s, error: %v", run.ID, err)
		return
	}
	if resp.IsError() {
		logger.Warn("Result callback of run %s answered %d", run.ID, resp.StatusCode())
	}
}
