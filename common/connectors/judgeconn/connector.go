package judgeconn

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"judge_engine/common/config"
	"judge_engine/judge/tester"
	"judge_engine/judge/testgen"
	"judge_engine/lib/connector"
)

type Connector struct {
	Connection *config.Connection
	client     *resty.Client
}

func NewConnector(connection *config.Connection) *Connector {
	c := &Connector{
		Connection: connection,
		client:     resty.New(),
	}
	c.client.SetBaseURL(connection.Address)
	// TODO: Add auth
	return c
}

func (c *Connector) R() *resty.Request {
	return c.client.R()
}

// SubmitRun enqueues a judging run and returns its ID.
func (c *Connector) SubmitRun(ctx context.Context, request *SubmitRequest) (string, error) {
	r := c.R()
	r.SetContext(ctx)
	r.SetBody(request)

	resp, err := connector.Receive[SubmitResponse](r, "/judge/new", resty.MethodPost)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// GetRun fetches the current state of a run, including the report once the
// run finished.
func (c *Connector) GetRun(ctx context.Context, id string) (*Run, error) {
	r := c.R()
	r.SetContext(ctx)

	return connector.Receive[Run](r, fmt.Sprintf("/judge/run/%s", id), resty.MethodGet)
}

// Trial compiles and executes a solution once, synchronously.
func (c *Connector) Trial(ctx context.Context, request *TrialRequest) (*tester.TrialResult, error) {
	r := c.R()
	r.SetContext(ctx)
	r.SetBody(request)

	return connector.Receive[tester.TrialResult](r, "/judge/trial", resty.MethodPost)
}

func (c *Connector) GenerateTests(
	ctx context.Context, problem string, request *GenerateTestsRequest,
) (*GenerateTestsResponse, error) {
	r := c.R()
	r.SetContext(ctx)
	r.SetBody(request)

	path := fmt.Sprintf("/problems/%s/tests/generate", problem)
	return connector.Receive[GenerateTestsResponse](r, path, resty.MethodPost)
}

func (c *Connector) ValidateInput(
	ctx context.Context, problem string, input string,
) (*testgen.ValidationOutcome, error) {
	r := c.R()
	r.SetContext(ctx)
	r.SetBody(&ValidateInputRequest{Input: input})

	path := fmt.Sprintf("/problems/%s/tests/validate", problem)
	return connector.Receive[testgen.ValidationOutcome](r, path, resty.MethodPost)
}

// AddTest inserts a manual test and returns its assigned number.
func (c *Connector) AddTest(
	ctx context.Context, problem string, request *AddTestRequest,
) (int, error) {
	r := c.R()
	r.SetContext(ctx)
	r.SetBody(request)

	path := fmt.Sprintf("/problems/%s/tests/manual", problem)
	resp, err := connector.Receive[AddTestResponse](r, path, resty.MethodPost)
	if err != nil {
		return 0, err
	}
	return resp.Number, nil
}

// DeleteTests removes tests and returns how many were deleted.
func (c *Connector) DeleteTests(
	ctx context.Context, problem string, request *DeleteTestsRequest,
) (int, error) {
	r := c.R()
	r.SetContext(ctx)
	r.SetBody(request)

	path := fmt.Sprintf("/problems/%s/tests", problem)
	resp, err := connector.Receive[DeleteTestsResponse](r, path, resty.MethodDelete)
	if err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

func (c *Connector) TestsOverview(
	ctx context.Context, problem string,
) (*testgen.TestsOverview, error) {
	r := c.R()
	r.SetContext(ctx)

	path := fmt.Sprintf("/problems/%s/tests", problem)
	return connector.Receive[testgen.TestsOverview](r, path, resty.MethodGet)
}

func (c *Connector) Status(ctx context.Context) (*EngineStatus, error) {
	r := c.R()
	r.SetContext(ctx)

	return connector.Receive[EngineStatus](r, "/status", resty.MethodGet)
}
