package notify

import (
	"context"
	"log"
	"time"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/repository"
)

const (
	maxAttempts  = 5
	batchSize    = 20
	pollInterval = 15 * time.Second
)

// Enqueuer is what the workflow services see: persist an email for delivery.
// Enqueue failures are the caller's to log, never to propagate: the
// document transition has already committed.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Outbox persists outgoing emails and drains them from a background worker,
// decoupling notification failures from the state transitions that caused
// them.
type Outbox struct {
	repo   repository.OutboxRepository
	mailer Mailer
}

func NewOutbox(repo repository.OutboxRepository, mailer Mailer) *Outbox {
	return &Outbox{repo: repo, mailer: mailer}
}

func (o *Outbox) Enqueue(ctx context.Context, msg Message) error {
	return o.repo.Create(ctx, &model.EmailOutbox{
		ToAddr:  msg.To,
		Subject: msg.Subject,
		Body:    msg.HTML,
		Status:  model.OutboxPending,
	})
}

// Run drains pending emails until the context is cancelled. Started from
// main as a goroutine, like the websocket hub.
func (o *Outbox) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.drain(ctx)
		}
	}
}

func (o *Outbox) drain(ctx context.Context) {
	pending, err := o.repo.ListPending(ctx, maxAttempts, batchSize)
	if err != nil {
		log.Printf("outbox: failed to list pending emails: %v", err)
		return
	}

	for i := range pending {
		msg := &pending[i]
		sendErr := o.mailer.Send(Message{To: msg.ToAddr, Subject: msg.Subject, HTML: msg.Body})
		msg.Attempts++
		if sendErr != nil {
			msg.LastError = sendErr.Error()
			if msg.Attempts >= maxAttempts {
				msg.Status = model.OutboxFailed
				log.Printf("outbox: giving up on email to %s after %d attempts: %v", msg.ToAddr, msg.Attempts, sendErr)
			}
		} else {
			now := time.Now()
			msg.Status = model.OutboxSent
			msg.SentAt = &now
			msg.LastError = ""
		}
		if err := o.repo.Update(ctx, msg); err != nil {
			log.Printf("outbox: failed to update email %s: %v", msg.ID, err)
		}
	}
}
