package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/nexusfashion/nexus-backend/internal/reports"
	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
)

type fakeLock struct {
	available bool
	acquired  int
	released  int
}

func (l *fakeLock) Acquire(ctx context.Context) (bool, error) {
	l.acquired++
	return l.available, nil
}

func (l *fakeLock) Release(ctx context.Context) error {
	l.released++
	return nil
}

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRunCycleExecutesJobsInOrder(t *testing.T) {
	first := &countingJob{name: "first"}
	second := &countingJob{name: "second"}
	lock := &fakeLock{available: true}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(first, second),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if first.runs != 1 || second.runs != 1 {
		t.Fatalf("runs = %d/%d, want 1/1", first.runs, second.runs)
	}
	if lock.released != 1 {
		t.Fatalf("lock released %d times, want 1", lock.released)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &countingJob{name: "noop"}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{available: false},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran %d times while lock held elsewhere", job.runs)
	}
}

func TestRunCycleContinuesAfterJobFailure(t *testing.T) {
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	trailing := &countingJob{name: "trailing"}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(failing, trailing),
		Lock:     &fakeLock{available: true},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if trailing.runs != 1 {
		t.Fatal("a failing job must not stop the cycle")
	}
}

type fakeGenerator struct {
	types  []enums.ReportType
	failOn enums.ReportType
	err    error
}

func (g *fakeGenerator) Generate(ctx context.Context, input reports.GenerateInput) ([]models.SalesReport, error) {
	if g.err != nil && (g.failOn == "" || g.failOn == input.ReportType) {
		return nil, g.err
	}
	g.types = append(g.types, input.ReportType)
	return []models.SalesReport{{}}, nil
}

func TestSalesReportJobGeneratesAllWindows(t *testing.T) {
	gen := &fakeGenerator{}
	job, err := NewSalesReportJob(SalesReportJobParams{Logger: testLogger(), Reports: gen})
	if err != nil {
		t.Fatalf("NewSalesReportJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []enums.ReportType{enums.ReportTypeDaily, enums.ReportTypeWeekly, enums.ReportTypeMonthly}
	if len(gen.types) != len(want) {
		t.Fatalf("generated %v, want %v", gen.types, want)
	}
	for i, reportType := range want {
		if gen.types[i] != reportType {
			t.Fatalf("generated %v, want %v", gen.types, want)
		}
	}
}

func TestSalesReportJobPropagatesFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("aggregation failed"), failOn: enums.ReportTypeWeekly}
	job, err := NewSalesReportJob(SalesReportJobParams{Logger: testLogger(), Reports: gen})
	if err != nil {
		t.Fatalf("NewSalesReportJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	// A failing window must not stop the remaining rollups.
	want := []enums.ReportType{enums.ReportTypeDaily, enums.ReportTypeMonthly}
	if len(gen.types) != len(want) || gen.types[0] != want[0] || gen.types[1] != want[1] {
		t.Fatalf("generated %v, want %v", gen.types, want)
	}
}
