package db

import (
	"context"
	"errors"
	"testing"
)

func TestRunChecks_AllHealthy(t *testing.T) {
	checks := []DependencyCheck{
		{Name: "redis", Check: func(context.Context) error { return nil }},
		{Name: "amqp", Check: func(context.Context) error { return nil }},
	}
	results, healthy := RunChecks(context.Background(), checks)
	if !healthy {
		t.Error("expected healthy")
	}
	if results["redis"] != "ok" || results["amqp"] != "ok" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestRunChecks_OneFailing(t *testing.T) {
	checks := []DependencyCheck{
		{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
		{Name: "minio", Check: func(context.Context) error { return nil }},
	}
	results, healthy := RunChecks(context.Background(), checks)
	if healthy {
		t.Error("expected unhealthy")
	}
	if results["redis"] != "connection refused" {
		t.Errorf("expected error text for redis, got %q", results["redis"])
	}
	if results["minio"] != "ok" {
		t.Errorf("expected minio ok, got %q", results["minio"])
	}
}

func TestRunChecks_Empty(t *testing.T) {
	results, healthy := RunChecks(context.Background(), nil)
	if !healthy || len(results) != 0 {
		t.Errorf("expected healthy with no results, got %v %v", healthy, results)
	}
}
