package services

import (
	"context"
	"errors"
	"testing"
)

func TestBroadcastCountsFailures(t *testing.T) {
	ids := make([]int64, 25)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	var delivered []int64
	b := NewBroadcaster(func(userID int64, text string) error {
		if userID == 13 {
			return errors.New("bot was blocked by the user")
		}
		delivered = append(delivered, userID)
		return nil
	}, 0)

	report := b.Run(context.Background(), ids, "hello", nil)
	if report.Sent != 24 || report.Failed != 1 || report.Total != 25 {
		t.Fatalf("report = %+v; want 24/1/25", report)
	}
	if len(delivered) != 24 {
		t.Fatalf("delivered = %d recipients; want 24", len(delivered))
	}
	if report.ID == "" {
		t.Fatal("report must carry a run id")
	}
}

func TestBroadcastFailureDoesNotStopRun(t *testing.T) {
	b := NewBroadcaster(func(userID int64, text string) error {
		return errors.New("always fails")
	}, 0)

	report := b.Run(context.Background(), []int64{1, 2, 3}, "x", nil)
	if report.Sent != 0 || report.Failed != 3 {
		t.Fatalf("report = %+v; want 0/3", report)
	}
}

func TestBroadcastCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sent := 0
	b := NewBroadcaster(func(userID int64, text string) error {
		sent++
		if sent == 2 {
			cancel()
		}
		return nil
	}, 0)

	report := b.Run(ctx, []int64{1, 2, 3, 4, 5}, "x", nil)
	if report.Sent != 2 {
		t.Fatalf("Sent = %d; want 2 before cancellation", report.Sent)
	}
	if report.Sent+report.Failed >= report.Total {
		t.Fatal("cancelled run must be partial")
	}
}

func TestBroadcastReportsCumulativeProgress(t *testing.T) {
	ids := make([]int64, 25)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	b := NewBroadcaster(func(userID int64, text string) error {
		if userID%5 == 0 {
			return errors.New("blocked")
		}
		return nil
	}, 0)

	type tick struct{ sent, failed, total int }
	var ticks []tick
	b.Run(context.Background(), ids, "x", func(sent, failed, total int) {
		ticks = append(ticks, tick{sent, failed, total})
	})

	want := []tick{{8, 2, 25}, {16, 4, 25}, {20, 5, 25}}
	if len(ticks) != len(want) {
		t.Fatalf("progress ticks = %+v; want %+v", ticks, want)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Fatalf("tick %d = %+v; want %+v", i, ticks[i], want[i])
		}
	}
}

func TestBroadcastEmptyAudience(t *testing.T) {
	b := NewBroadcaster(func(int64, string) error {
		t.Fatal("send must not be called")
		return nil
	}, 0)
	report := b.Run(context.Background(), nil, "x", nil)
	if report.Sent != 0 || report.Failed != 0 || report.Total != 0 {
		t.Fatalf("report = %+v; want zeros", report)
	}
}
