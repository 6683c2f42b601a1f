package common

import (
	"errors"
	"testing"
	"time"
)

type cachedBoard struct {
	Names  []string `json:"names"`
	Scores []int    `json:"scores"`
}

func TestCacheServiceRoundTrip(t *testing.T) {
	c := NewCacheService(time.Minute, time.Minute)

	var miss cachedBoard
	if c.Get("board", &miss) {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("board", cachedBoard{Names: []string{"ana"}, Scores: []int{20}}, time.Minute)

	var got cachedBoard
	if !c.Get("board", &got) {
		t.Fatal("expected hit after Set")
	}
	if len(got.Names) != 1 || got.Names[0] != "ana" || got.Scores[0] != 20 {
		t.Errorf("unexpected cached value: %+v", got)
	}

	c.Delete("board")
	if c.Get("board", &got) {
		t.Error("expected miss after Delete")
	}
}

func TestGetOrSet(t *testing.T) {
	c := NewCacheService(time.Minute, time.Minute)
	loads := 0
	loader := func() (cachedBoard, error) {
		loads++
		return cachedBoard{Names: []string{"bo"}}, nil
	}

	first, hit, err := GetOrSet(c, "k", time.Minute, loader)
	if err != nil || hit {
		t.Fatalf("expected loaded miss, got hit=%v err=%v", hit, err)
	}
	second, hit, err := GetOrSet(c, "k", time.Minute, loader)
	if err != nil || !hit {
		t.Fatalf("expected cache hit, got hit=%v err=%v", hit, err)
	}
	if loads != 1 {
		t.Errorf("expected loader to run once, ran %d times", loads)
	}
	if first.Names[0] != second.Names[0] {
		t.Errorf("cached value differs: %+v vs %+v", first, second)
	}

	boom := errors.New("boom")
	_, _, err = GetOrSet(c, "other", time.Minute, func() (cachedBoard, error) { return cachedBoard{}, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected loader error, got %v", err)
	}
	var none cachedBoard
	if c.Get("other", &none) {
		t.Error("failed load must not be cached")
	}
}
