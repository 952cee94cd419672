package helper

import (
	"log"
	"time"

	"shop_backend/model"
	"shop_backend/notify"
	"shop_backend/store"

	"github.com/robfig/cron/v3"
)

var reconcileScheduler *cron.Cron

// Charges older than this without a recorded order are assumed stuck, not
// in flight.
const chargeGapGrace = 10 * time.Minute

// StartReconcileScheduler sweeps the charge journal every 5 minutes for
// captured charges that never got an order row and escalates each one.
// There is no automatic refund; reconciliation is a human decision.
func StartReconcileScheduler(charges store.ChargeLog, orders store.OrderStore, dispatcher *notify.Dispatcher) {
	reconcileScheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := reconcileScheduler.AddFunc("*/5 * * * *", func() {
		ReconcileCharges(charges, orders, dispatcher)
	})
	if err != nil {
		log.Printf("failed to start reconcile scheduler: %v", err)
		return
	}

	reconcileScheduler.Start()
	log.Println("charge reconciliation scheduler started (every 5 minutes)")
}

func StopReconcileScheduler() {
	if reconcileScheduler != nil {
		reconcileScheduler.Stop()
	}
}

func ReconcileCharges(charges store.ChargeLog, orders store.OrderStore, dispatcher *notify.Dispatcher) {
	recs, err := charges.Unrecorded(chargeGapGrace)
	if err != nil {
		log.Printf("charge reconciliation scan failed: %v", err)
		return
	}

	for _, rec := range recs {
		// The order may have landed after the journal row was written but
		// before this sweep; re-check before escalating.
		if _, err := orders.GetByNumber(rec.OrderNumber); err == nil {
			if err := charges.MarkRecorded(rec.TransactionID); err != nil {
				log.Printf("failed to mark charge %s recorded: %v", rec.TransactionID, err)
			}
			continue
		}
		escalate(dispatcher, rec)
	}
}

func escalate(dispatcher *notify.Dispatcher, rec model.ChargeRecord) {
	if dispatcher != nil {
		dispatcher.EscalateChargeGap(rec)
		return
	}
	log.Printf("CRITICAL: charge %s captured but no order recorded", rec.TransactionID)
}
