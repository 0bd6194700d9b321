package raggate

import (
	"context"

	dombatch "github.com/kailas-cloud/raggate/internal/domain/batch"
	domresp "github.com/kailas-cloud/raggate/internal/domain/response"
	healthuc "github.com/kailas-cloud/raggate/internal/usecase/health"
	"github.com/kailas-cloud/raggate/internal/usecase/ingest"
	"github.com/kailas-cloud/raggate/internal/usecase/pipeline"
)

type mockQueries struct {
	queryFn func(ctx context.Context, question string, opts ...pipeline.Option) (domresp.Response, error)
}

func (m *mockQueries) Query(ctx context.Context, question string, opts ...pipeline.Option) (domresp.Response, error) {
	return m.queryFn(ctx, question, opts...)
}

type mockIngester struct {
	ingestFn func(ctx context.Context, items []ingest.Item) []dombatch.Result
}

func (m *mockIngester) Ingest(ctx context.Context, items []ingest.Item) []dombatch.Result {
	return m.ingestFn(ctx, items)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }
