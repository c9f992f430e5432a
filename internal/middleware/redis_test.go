package middleware

import (
	"context"
	"testing"
)

func TestNewRedisClient_NotConfigured(t *testing.T) {
	t.Parallel()

	client, err := NewRedisClient(context.Background(), "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if client != nil {
		t.Error("Expected a nil client when REDIS_URL is empty")
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	t.Parallel()

	client, err := NewRedisClient(context.Background(), "http://localhost:6379")
	if err == nil {
		t.Fatal("Expected error for a non-redis URL scheme")
	}
	if client != nil {
		t.Error("Expected no client on error")
	}
}
