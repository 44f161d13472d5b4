package logging_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

func TestCtxRequestID(t *testing.T) {
	t.Run("generates new ID when not set", func(t *testing.T) {
		ctx := context.Background()
		id, newCtx := logging.CtxRequestID(ctx)
		gt.V(t, string(id) == "").Equal(false)

		again, _ := logging.CtxRequestID(newCtx)
		gt.V(t, again).Equal(id)
	})
}

func TestCtxTime(t *testing.T) {
	t.Run("returns fixed time from context", func(t *testing.T) {
		fixed := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
		ctx := logging.CtxWithTime(context.Background(), func() time.Time { return fixed })
		gt.V(t, logging.CtxTime(ctx)).Equal(fixed)
	})

	t.Run("falls back to wall clock", func(t *testing.T) {
		before := time.Now()
		got := logging.CtxTime(context.Background())
		gt.False(t, got.Before(before))
	})
}

func TestInheritContextValues(t *testing.T) {
	fixed := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	src := context.Background()
	reqID, src := logging.CtxRequestID(src)
	src = logging.CtxWithTime(src, func() time.Time { return fixed })

	dst := logging.InheritContextValues(context.Background(), src)

	gotID, _ := logging.CtxRequestID(dst)
	gt.V(t, gotID).Equal(reqID)
	gt.V(t, logging.CtxTime(dst)).Equal(fixed)
}

func TestFrom(t *testing.T) {
	t.Run("returns default logger when not set", func(t *testing.T) {
		gt.V(t, logging.From(context.Background()) == nil).Equal(false)
	})

	t.Run("returns logger from context", func(t *testing.T) {
		logger := slog.Default().With("component", "test")
		ctx := logging.With(context.Background(), logger)
		gt.V(t, logging.From(ctx)).Equal(logger)
	})
}
