package worker

import (
	"context"
	"time"

	"billfold/internal/core"
	"billfold/internal/event"
	"billfold/internal/ledger"
	"billfold/internal/log"
)

// Worker runs background maintenance for the ledger: rolling monthly bills
// back to unpaid when a new calendar month starts, and draining ledger events
// off the queue for the audit log.
type Worker struct {
	store    ledger.BillStore
	events   *event.Client
	logger   *log.Logger
	interval time.Duration
	now      func() time.Time
}

func New(store ledger.BillStore, events *event.Client, logger *log.Logger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{
		store:    store,
		events:   events,
		logger:   logger.WithComponent(log.ComponentWorker),
		interval: interval,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used in tests.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// RunRollover resets monthly bills on a ticker until ctx is cancelled.
func (w *Worker) RunRollover(ctx context.Context) error {
	w.logger.Info("Rollover loop started", "interval", w.interval.String())

	// Run once at startup so a restart never misses a month boundary.
	if err := w.RolloverOnce(ctx); err != nil {
		w.logger.Error("Initial rollover failed", log.FieldError, err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.RolloverOnce(ctx); err != nil {
				w.logger.Error("Rollover failed", log.FieldError, err)
			}
		case <-ctx.Done():
			w.logger.Info("Rollover loop stopped")
			return ctx.Err()
		}
	}
}

// RolloverOnce flips every monthly bill paid in a previous month back to
// unpaid. The payment transaction from the old month stays in the ledger;
// only the paid flag resets so the bill is due again.
func (w *Worker) RolloverOnce(ctx context.Context) error {
	now := w.now()
	year, month := now.Year(), int(now.Month())

	bills, err := w.store.ListBills(ctx)
	if err != nil {
		return err
	}

	rolled := 0
	for _, b := range bills {
		if !w.needsRollover(b, year, month) {
			continue
		}

		b.Paid = false
		b.PaidYear = 0
		b.PaidMonth = 0
		if err := w.store.UpdateBill(ctx, b); err != nil {
			w.logger.Error("Bill rollover update failed",
				log.FieldEntityID, b.ID,
				log.FieldBillName, b.Name,
				log.FieldError, err)
			continue
		}
		rolled++
		w.logger.Info("Monthly bill rolled over",
			log.FieldEntityID, b.ID,
			log.FieldBillName, b.Name,
			log.FieldDueDay, b.DueDay)
	}

	if rolled > 0 {
		w.logger.Info("Rollover pass complete", "bills_reset", rolled)
	}
	return nil
}

func (w *Worker) needsRollover(b core.Bill, year, month int) bool {
	if !b.Monthly || !b.Paid {
		return false
	}
	// A bill paid before stamping existed has no month recorded; leave it
	// alone rather than guess.
	if b.PaidYear == 0 {
		return false
	}
	return b.PaidYear < year || (b.PaidYear == year && b.PaidMonth < month)
}

// RunConsumer drains ledger events into the structured audit log until ctx is
// cancelled. Returns nil immediately when eventing is disabled.
func (w *Worker) RunConsumer(ctx context.Context) error {
	if w.events == nil {
		w.logger.Info("Event consumer disabled, no broker configured")
		return nil
	}

	w.logger.Info("Event consumer started")
	return w.events.Consume(ctx, func(ev *event.LedgerEvent) error {
		w.logger.Info("Ledger event",
			log.FieldEventKind, ev.Kind,
			log.FieldEntityID, ev.EntityID,
			log.FieldAmountCents, ev.AmountCents,
			"occurred_at", ev.OccurredAt.Format(time.RFC3339),
		)
		return nil
	})
}
