package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestNewClient(t *testing.T) {
	up := miniredis.RunT(t)
	down := miniredis.RunT(t)
	downURL := "redis://" + down.Addr()
	down.Close()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "reachable", url: "redis://" + up.Addr()},
		{name: "invalid url", url: "://bad-url", wantErr: true},
		{name: "server down", url: downURL, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.url)
			if tt.wantErr {
				if err == nil {
					_ = client.Close()
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_ = client.Close()
		})
	}
}

func TestPingFollowsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	probe := Ping(client)
	if err := probe(context.Background()); err != nil {
		t.Fatalf("expected healthy probe, got %v", err)
	}

	mr.Close()
	if err := probe(context.Background()); err == nil {
		t.Fatal("expected probe to fail once redis is gone")
	}
}
