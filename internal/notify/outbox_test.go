package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/model"
)

type fakeOutboxRepo struct {
	rows []model.EmailOutbox
}

func (f *fakeOutboxRepo) Create(ctx context.Context, msg *model.EmailOutbox) error {
	msg.ID = uuid.New()
	f.rows = append(f.rows, *msg)
	return nil
}

func (f *fakeOutboxRepo) ListPending(ctx context.Context, maxAttempts, limit int) ([]model.EmailOutbox, error) {
	var pending []model.EmailOutbox
	for _, row := range f.rows {
		if row.Status == model.OutboxPending && row.Attempts < maxAttempts {
			pending = append(pending, row)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (f *fakeOutboxRepo) Update(ctx context.Context, msg *model.EmailOutbox) error {
	for i := range f.rows {
		if f.rows[i].ID == msg.ID {
			f.rows[i] = *msg
			return nil
		}
	}
	return errors.New("not found")
}

type fakeMailer struct {
	sent []Message
	err  error
}

func (f *fakeMailer) Send(msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestEnqueuePersistsPendingRow(t *testing.T) {
	repo := &fakeOutboxRepo{}
	outbox := NewOutbox(repo, &fakeMailer{})

	err := outbox.Enqueue(context.Background(), Message{To: "jean@x.com", Subject: "Your quote", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if len(repo.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(repo.rows))
	}
	row := repo.rows[0]
	if row.Status != model.OutboxPending || row.ToAddr != "jean@x.com" || row.Body != "<p>hi</p>" {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestDrainSendsAndMarksSent(t *testing.T) {
	repo := &fakeOutboxRepo{}
	mailer := &fakeMailer{}
	outbox := NewOutbox(repo, mailer)

	outbox.Enqueue(context.Background(), Message{To: "jean@x.com", Subject: "Your quote", HTML: "<p>hi</p>"})
	outbox.drain(context.Background())

	if len(mailer.sent) != 1 || mailer.sent[0].To != "jean@x.com" {
		t.Fatalf("expected 1 delivery, got %+v", mailer.sent)
	}
	row := repo.rows[0]
	if row.Status != model.OutboxSent {
		t.Errorf("expected SENT, got %s", row.Status)
	}
	if row.SentAt == nil || row.Attempts != 1 {
		t.Errorf("unexpected bookkeeping: %+v", row)
	}

	// A second drain finds nothing pending.
	outbox.drain(context.Background())
	if len(mailer.sent) != 1 {
		t.Errorf("sent row must not be delivered again, got %d deliveries", len(mailer.sent))
	}
}

func TestDrainRetriesUntilMaxAttempts(t *testing.T) {
	repo := &fakeOutboxRepo{}
	mailer := &fakeMailer{err: errors.New("smtp: connection refused")}
	outbox := NewOutbox(repo, mailer)

	outbox.Enqueue(context.Background(), Message{To: "jean@x.com", Subject: "Your quote", HTML: "<p>hi</p>"})

	for i := 0; i < maxAttempts; i++ {
		outbox.drain(context.Background())
	}

	row := repo.rows[0]
	if row.Attempts != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, row.Attempts)
	}
	if row.Status != model.OutboxFailed {
		t.Errorf("expected FAILED after max attempts, got %s", row.Status)
	}
	if row.LastError == "" {
		t.Error("expected the last error to be recorded")
	}

	// Failed rows are never retried.
	outbox.drain(context.Background())
	if repo.rows[0].Attempts != maxAttempts {
		t.Errorf("failed row must not be retried, got %d attempts", repo.rows[0].Attempts)
	}
}

func TestDrainRecoversAfterTransientFailure(t *testing.T) {
	repo := &fakeOutboxRepo{}
	mailer := &fakeMailer{err: errors.New("smtp: timeout")}
	outbox := NewOutbox(repo, mailer)

	outbox.Enqueue(context.Background(), Message{To: "jean@x.com", Subject: "Your quote", HTML: "<p>hi</p>"})
	outbox.drain(context.Background())

	if repo.rows[0].Status != model.OutboxPending {
		t.Fatalf("row must stay pending before max attempts, got %s", repo.rows[0].Status)
	}

	mailer.err = nil
	outbox.drain(context.Background())

	row := repo.rows[0]
	if row.Status != model.OutboxSent || row.Attempts != 2 {
		t.Errorf("expected SENT on attempt 2, got %+v", row)
	}
	if row.LastError != "" {
		t.Error("last error must be cleared after a successful send")
	}
}
