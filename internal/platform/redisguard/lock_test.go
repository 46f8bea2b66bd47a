package redisguard

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestNopLocker_RunsFn(t *testing.T) {
	ran := false
	err := NopLocker{}.WithChildLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Error("critical section did not run")
	}
}

func TestNopLocker_PropagatesError(t *testing.T) {
	want := context.Canceled
	err := NopLocker{}.WithChildLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		return want
	})
	if err != want {
		t.Errorf("err = %v, want %v", err, want)
	}
}
