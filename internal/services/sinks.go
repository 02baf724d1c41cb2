package services

import (
	"context"

	"github.com/benj-n/regami/internal/models"
	"github.com/benj-n/regami/internal/ws"
)

// EmailSink delivers transactional emails. Best effort: implementations
// log failures and never return them.
type EmailSink interface {
	SendTemplate(to, subject, name string, data map[string]string)
}

// PushSink delivers device push notifications. Best effort; a user without
// a registered device token is skipped silently.
type PushSink interface {
	Notify(ctx context.Context, user *models.User, title, body string, data map[string]string)
}

// Realtime fans an event out to a user's currently open live connections.
type Realtime interface {
	SendToUser(userID string, event ws.Event)
}

// noopEmail and noopPush back optional collaborators so services never
// nil-check their sinks.
type noopEmail struct{}

func (noopEmail) SendTemplate(to, subject, name string, data map[string]string) {}

type noopPush struct{}

func (noopPush) Notify(ctx context.Context, user *models.User, title, body string, data map[string]string) {
}

type noopRealtime struct{}

func (noopRealtime) SendToUser(userID string, event ws.Event) {}

// NoopEmailSink returns a sink that drops all email.
func NoopEmailSink() EmailSink { return noopEmail{} }

// NoopPushSink returns a sink that drops all pushes.
func NoopPushSink() PushSink { return noopPush{} }

// NoopRealtime returns a fan-out that drops all events.
func NoopRealtime() Realtime { return noopRealtime{} }
