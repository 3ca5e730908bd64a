package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nexusfashion/nexus-backend/internal/reports"
	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
	"go.uber.org/multierr"
)

type reportGenerator interface {
	Generate(ctx context.Context, input reports.GenerateInput) ([]models.SalesReport, error)
}

// SalesReportJobParams configure the rollup job.
type SalesReportJobParams struct {
	Logger  *logger.Logger
	Reports reportGenerator
}

// NewSalesReportJob builds the job that keeps the sales report windows
// current. Rows upsert, so regenerating an open window is safe.
func NewSalesReportJob(params SalesReportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reports == nil {
		return nil, fmt.Errorf("reports service required")
	}
	return &salesReportJob{
		logg:    params.Logger,
		reports: params.Reports,
		now:     time.Now,
	}, nil
}

type salesReportJob struct {
	logg    *logger.Logger
	reports reportGenerator
	now     func() time.Time
}

func (j *salesReportJob) Name() string { return "sales-reports" }

func (j *salesReportJob) Run(ctx context.Context) error {
	ref := j.now().UTC()
	total := 0
	var errs []error
	for _, reportType := range []enums.ReportType{
		enums.ReportTypeDaily,
		enums.ReportTypeWeekly,
		enums.ReportTypeMonthly,
	} {
		rows, err := j.reports.Generate(ctx, reports.GenerateInput{
			ReportType: reportType,
			Reference:  ref,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("generate %s report: %w", reportType, err))
			continue
		}
		total += len(rows)
	}

	logCtx := j.logg.WithField(ctx, "rows_written", total)
	j.logg.Info(logCtx, "sales report rollups refreshed")
	return multierr.Combine(errs...)
}
