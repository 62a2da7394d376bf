package httpserver

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_Defaults(t *testing.T) {
	s := New(Options{Addr: ":0"})
	if s.HTTP.Handler == nil {
		t.Fatal("expected default router")
	}
	if s.HTTP.WriteTimeout != 0 {
		t.Fatalf("write timeout must stay unset for streams, got %s", s.HTTP.WriteTimeout)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	s := New(Options{Addr: "256.0.0.1:bad"})
	if err := s.Run(context.Background(), zap.NewNop()); err == nil {
		t.Fatal("expected listen error")
	}
}
