package cache

import (
	"context"
	"testing"
	"time"
)

type board struct {
	Doctor string `json:"doctor"`
	Tokens []int  `json:"tokens"`
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	if err := c.Set(ctx, "queue:a", board{Doctor: "Dr. Ali", Tokens: []int{1, 2}}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got board
	ok, err := c.Get(ctx, "queue:a", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Doctor != "Dr. Ali" || len(got.Tokens) != 2 {
		t.Errorf("unexpected value %+v", got)
	}

	ok, _ = c.Get(ctx, "queue:missing", &got)
	if ok {
		t.Error("expected miss")
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", 1, 5*time.Second)
	now = now.Add(5 * time.Second)
	var v int
	if ok, _ := c.Get(ctx, "k", &v); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemory_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	_ = c.Set(ctx, "queue:a:all", 1, 0)
	_ = c.Set(ctx, "queue:a:doc", 2, 0)
	_ = c.Set(ctx, "queue:b:all", 3, 0)

	if err := c.DeletePrefix(ctx, "queue:a:"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	var v int
	if ok, _ := c.Get(ctx, "queue:a:doc", &v); ok {
		t.Error("expected queue:a keys to be removed")
	}
	if ok, _ := c.Get(ctx, "queue:b:all", &v); !ok {
		t.Error("expected other clinic's key to survive")
	}
}

func TestMemory_SetNX(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	first, _ := c.SetNX(ctx, "reminder:1", true, time.Hour)
	second, _ := c.SetNX(ctx, "reminder:1", true, time.Hour)
	if !first || second {
		t.Errorf("expected first=true second=false, got %v %v", first, second)
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	_ = c.Set(ctx, "k", 1, time.Minute)
	var v int
	if ok, _ := c.Get(ctx, "k", &v); ok {
		t.Error("noop cache should always miss")
	}
	if ok, _ := c.SetNX(ctx, "k", 1, time.Minute); !ok {
		t.Error("noop SetNX should report acquired")
	}
}

var (
	_ Cache = (*Redis)(nil)
	_ Cache = (*Memory)(nil)
)
