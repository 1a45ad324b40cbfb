package bulk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/domain"
)

// BulkAPI is the backend call used for bulk creation.
type BulkAPI interface {
	BulkCreate(ctx context.Context, rows []domain.BulkCertificate) (*domain.BulkCreateResponse, error)
}

// Creator submits parsed CSV rows in one request.
type Creator struct {
	api    BulkAPI
	logger *zap.Logger
}

// NewCreator creates a new Creator
func NewCreator(api BulkAPI, logger *zap.Logger) *Creator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Creator{api: api, logger: logger}
}

// Create sends records to the backend. Rows the backend refuses are listed in
// the report. If the request itself fails every row is reported as failed
// and the error is returned alongside the report.
func (c *Creator) Create(ctx context.Context, records []domain.BulkCertificate) (*Report, error) {
	rep := &Report{Total: len(records)}
	if len(records) == 0 {
		return rep, nil
	}

	resp, err := c.api.BulkCreate(ctx, records)
	if err != nil {
		for _, r := range records {
			rep.fail(r.Name, err)
		}
		c.logger.Warn("bulk create failed", zap.Int("rows", len(records)), zap.Error(err))
		return rep, fmt.Errorf("bulk create: %w", err)
	}

	for _, f := range resp.Failed {
		rep.Failed++
		rep.Failures = append(rep.Failures, Failure{Item: f.Name, Reason: f.Reason})
	}
	if resp.Created != nil {
		rep.Succeeded = len(resp.Created)
	} else {
		rep.Succeeded = rep.Total - rep.Failed
	}

	c.logger.Info("bulk create finished",
		zap.Int("total", rep.Total),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed))
	return rep, nil
}
