package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter admits at most limit calls per identity within each fixed window.
// A limit <= 0 admits everything.
type Limiter interface {
	Admit(ctx context.Context, identity string, limit int, window time.Duration) (Decision, error)
}

// Decision is the outcome of one admission check. RetryAfter is the time left
// in the identity's current window and is only set on rejection.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

func allow() Decision {
	return Decision{Allowed: true}
}

func reject(left, window time.Duration) Decision {
	if left <= 0 || left > window {
		left = window
	}
	return Decision{RetryAfter: left}
}

// Class is a named (limit, window) pair applied to a group of endpoints.
type Class struct {
	Name   string
	Limit  int
	Window time.Duration
}

func Normal(limit int, window time.Duration) Class {
	return Class{Name: "normal", Limit: limit, Window: window}
}

func Privileged(limit int, window time.Duration) Class {
	return Class{Name: "privileged", Limit: limit, Window: window}
}

// Admit applies the class to one identity.
func (c Class) Admit(ctx context.Context, l Limiter, identity string) (Decision, error) {
	return l.Admit(ctx, c.Name+":"+identity, c.Limit, c.Window)
}

func windowKey(identity string, window time.Duration) string {
	return fmt.Sprintf("%s:%d", identity, window.Milliseconds())
}
