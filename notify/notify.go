// Package notify delivers order mail off the request path. A slow or dead
// SMTP server can never delay or fail a checkout: enqueue never blocks and
// delivery failures are logged, not propagated.
package notify

import (
	"fmt"
	"log"
	"time"

	"shop_backend/model"
	"shop_backend/store"
	"shop_backend/utils"
)

const (
	queueSize   = 256
	maxAttempts = 3
)

var retryDelay = 30 * time.Second

type kind int

const (
	kindConfirmation kind = iota
	kindStatusChange
	kindOpsAlert
)

type task struct {
	kind     kind
	order    model.Order
	subject  string
	body     string
	attempts int
}

// Sender is the mail transport seam; tests swap it for a recorder.
type Sender interface {
	SendOrderConfirmation(order model.Order) error
	SendStatusChange(order model.Order) error
	SendOpsAlert(subject, body string) error
}

// SMTPSender delivers through the configured SMTP relay.
type SMTPSender struct{}

func (SMTPSender) SendOrderConfirmation(order model.Order) error {
	return utils.SendOrderConfirmationEmail(order)
}

func (SMTPSender) SendStatusChange(order model.Order) error {
	return utils.SendStatusChangeEmail(order)
}

func (SMTPSender) SendOpsAlert(subject, body string) error {
	return utils.SendOpsAlert(subject, body)
}

type Dispatcher struct {
	sender Sender
	orders store.OrderStore
	queue  chan task
	done   chan struct{}
}

func NewDispatcher(sender Sender, orders store.OrderStore) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		orders: orders,
		queue:  make(chan task, queueSize),
		done:   make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	go d.worker()
}

func (d *Dispatcher) Stop() {
	close(d.done)
}

// EnqueueConfirmation queues the paid-order mail. Dropping on a full queue
// is acceptable: notification is best-effort by contract.
func (d *Dispatcher) EnqueueConfirmation(order model.Order) {
	d.enqueue(task{kind: kindConfirmation, order: order})
}

func (d *Dispatcher) EnqueueStatusChange(order model.Order) {
	d.enqueue(task{kind: kindStatusChange, order: order})
}

// EscalateChargeGap flags a captured charge with no recorded order. This is
// the loud path: logged as CRITICAL and mailed to ops.
func (d *Dispatcher) EscalateChargeGap(rec model.ChargeRecord) {
	log.Printf("CRITICAL: charge %s (%.2f %s) captured but no order recorded (intended order %s)",
		rec.TransactionID, rec.Amount, rec.Currency, rec.OrderNumber)
	d.enqueue(task{
		kind:    kindOpsAlert,
		subject: "Charge without order: " + rec.TransactionID,
		body: fmt.Sprintf(
			"Transaction %s for %.2f %s (customer %s) was captured at %s but no order row exists.\n"+
				"Intended order number: %s. Manual reconciliation required.",
			rec.TransactionID, rec.Amount, rec.Currency, rec.Email,
			rec.CreatedAt.Format(time.RFC3339), rec.OrderNumber),
	})
}

func (d *Dispatcher) Alert(subject, body string) {
	d.enqueue(task{kind: kindOpsAlert, subject: subject, body: body})
}

func (d *Dispatcher) enqueue(t task) {
	select {
	case d.queue <- t:
	default:
		log.Printf("notify queue full, dropping %v message", t.kind)
	}
}

func (d *Dispatcher) worker() {
	for {
		select {
		case <-d.done:
			return
		case t := <-d.queue:
			d.deliver(t)
		}
	}
}

func (d *Dispatcher) deliver(t task) {
	var err error
	switch t.kind {
	case kindConfirmation:
		err = d.sender.SendOrderConfirmation(t.order)
	case kindStatusChange:
		err = d.sender.SendStatusChange(t.order)
	case kindOpsAlert:
		err = d.sender.SendOpsAlert(t.subject, t.body)
	}

	if err == nil {
		if t.kind == kindConfirmation && d.orders != nil {
			// Best-effort annotation, never gates order success.
			if _, uerr := d.orders.Update(t.order.OrderNumber,
				store.OrderPatch{EmailSent: utils.Ptr(true)}); uerr != nil {
				log.Printf("could not flag emailSent for %s: %v", t.order.OrderNumber, uerr)
			}
		}
		return
	}

	t.attempts++
	if t.attempts >= maxAttempts {
		log.Printf("giving up on notification after %d attempts: %v", t.attempts, err)
		return
	}
	log.Printf("notification failed (attempt %d): %v", t.attempts, err)

	go func(t task) {
		select {
		case <-d.done:
		case <-time.After(retryDelay):
			d.enqueue(t)
		}
	}(t)
}
