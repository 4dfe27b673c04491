package notification

import (
	"context"
	"sync"

	"loancrm/internal/domain/notification"
)

type recordingPusher struct {
	mu    sync.Mutex
	msgs  []notification.PushMessage
	err   error
	block bool
}

func (p *recordingPusher) PushToUser(ctx context.Context, _ uint64, msg notification.PushMessage) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPusher) messages() []notification.PushMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notification.PushMessage(nil), p.msgs...)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notification.Email
	err  error
}

func (m *recordingMailer) SendEmail(_ context.Context, e notification.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
