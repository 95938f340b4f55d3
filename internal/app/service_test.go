package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	mu       sync.Mutex
	stopped  bool
	order    *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeService) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	*f.order = append(*f.order, f.name)
	return nil
}

func TestRunnerStopsAllOnServiceFailure(t *testing.T) {
	var order []string
	api := &fakeService{name: "http", order: &order}
	broken := &fakeService{name: "worker", startErr: errors.New("redis down"), order: &order}

	err := NewRunner(api, broken).Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "worker: redis down" {
		t.Fatalf("want worker: redis down got %v", err)
	}
	if len(order) != 2 || order[0] != "worker" || order[1] != "http" {
		t.Fatalf("stop order want [worker http] got %v", order)
	}
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	var order []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(&fakeService{name: "http", order: &order}).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("want nil got %v", err)
	}
	if len(order) != 1 {
		t.Fatalf("service should be stopped once, got %v", order)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{"": ModeAll, "API": ModeAPI, " worker ": ModeWorker}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("mode %q want %s got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseMode("cron"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}
