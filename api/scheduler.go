/*
scheduler.go - Automated month-close scheduler

PURPOSE:
  Periodically closes the previous month's payroll for every organization:
  runs the batch calculation, records the one-time bonuses it paid, and
  marks the month closed so it is not processed twice.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - The month to close is the one before "now" in the platform time zone
  - Skips organizations whose month is already marked closed
  - An organization with failing employees is left open and retried on the
    next tick; payouts already recorded are idempotent

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewMonthCloseScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers_payroll.go: FinalizePayroll (manual, per employee)
  - store/settings.go: period close markers
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warp/shift-payroll/calendar"
)

// MonthCloseScheduler finalizes last month's payroll in the background.
type MonthCloseScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// CloseReport counts what one pass did.
type CloseReport struct {
	Period  calendar.Period
	Closed  int
	Skipped int
	Failed  int
}

// NewMonthCloseScheduler creates a new scheduler.
func NewMonthCloseScheduler(handler *Handler) *MonthCloseScheduler {
	return &MonthCloseScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (ms *MonthCloseScheduler) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	log := ms.Handler.Logger
	if !ms.Enabled {
		log.Info("month-close scheduler disabled")
		return
	}
	if ms.ticker != nil {
		return
	}

	ms.ticker = time.NewTicker(ms.CheckInterval)
	ms.stop = make(chan struct{})
	ms.wg.Add(1)

	go ms.run(ms.ticker, ms.stop)

	log.Info("month-close scheduler started", "interval", ms.CheckInterval)
}

// Stop stops the scheduler and waits for a running pass to finish.
func (ms *MonthCloseScheduler) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.ticker != nil {
		ms.ticker.Stop()
		close(ms.stop)
		ms.wg.Wait()
		ms.ticker = nil
		ms.Handler.Logger.Info("month-close scheduler stopped")
	}
}

func (ms *MonthCloseScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ms.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Run immediately on start
	ms.RunNow(ctx)

	for {
		select {
		case <-ticker.C:
			ms.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow closes the previous month for every organization.
func (ms *MonthCloseScheduler) RunNow(ctx context.Context) CloseReport {
	h := ms.Handler
	log := h.Logger

	loc, err := h.Zone.Get(ctx)
	if err != nil {
		log.ErrorContext(ctx, "month close: load time zone", "error", err)
		return CloseReport{}
	}
	period := PreviousMonth(h.now(), loc)
	report := CloseReport{Period: period}

	orgs, err := h.Store.ListOrganizations(ctx)
	if err != nil {
		log.ErrorContext(ctx, "month close: list organizations", "error", err)
		return report
	}

	for _, org := range orgs {
		if ctx.Err() != nil {
			break
		}
		closed, err := h.Store.IsPeriodClosed(ctx, org.ID, period)
		if err != nil {
			log.ErrorContext(ctx, "month close: check status", "organization_id", org.ID, "error", err)
			report.Failed++
			continue
		}
		if closed {
			report.Skipped++
			continue
		}
		if err := ms.closeOrganization(ctx, org.ID, period, loc); err != nil {
			log.WarnContext(ctx, "month close failed",
				"organization_id", org.ID, "period", period.String(), "error", err)
			report.Failed++
			continue
		}
		report.Closed++
	}

	if report.Closed > 0 || report.Failed > 0 {
		log.InfoContext(ctx, "month close completed",
			"period", period.String(),
			"closed", report.Closed,
			"skipped", report.Skipped,
			"failed", report.Failed)
	}
	return report
}

func (ms *MonthCloseScheduler) closeOrganization(ctx context.Context, orgID string, p calendar.Period, loc *time.Location) error {
	h := ms.Handler

	_, results, err := h.CalculateOrganization(ctx, orgID, p, loc)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		if err := h.Store.RecordBonusPayouts(ctx, res.EmployeeID, p, res.Summary.Bonuses); err != nil {
			return fmt.Errorf("employee %s: %w", res.EmployeeID, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d employees failed", failed, len(results))
	}
	return h.Store.MarkPeriodClosed(ctx, orgID, p, h.now())
}

// PreviousMonth returns the calendar month before the one containing now
// in loc.
func PreviousMonth(now time.Time, loc *time.Location) calendar.Period {
	today := calendar.DateOf(now, loc)
	first := calendar.NewDate(today.Year, today.Month, 1).AddMonths(-1)
	return calendar.MonthPeriod(first.Year, first.Month)
}
