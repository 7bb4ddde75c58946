package services

import (
	"context"
	"errors"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	ok := NewHealthService(pingFunc(func(context.Context) error { return nil }), "Inquiry Desk API", "1.0.0")
	got := ok.Check(context.Background())
	if got.Status != "healthy" || got.Database != "ok" || got.Version != "1.0.0" {
		t.Fatalf("unexpected result %+v", got)
	}

	down := NewHealthService(pingFunc(func(context.Context) error { return errors.New("refused") }), "Inquiry Desk API", "1.0.0")
	got = down.Check(context.Background())
	if got.Status != "unhealthy" || got.Database != "unreachable" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestHealthCheckHasDeadline(t *testing.T) {
	svc := NewHealthService(pingFunc(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return nil
	}), "svc", "v")
	if got := svc.Check(context.Background()); got.Status != "healthy" {
		t.Fatalf("ping ran without a deadline: %+v", got)
	}
}
