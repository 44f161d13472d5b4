package adapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Salmaelayeb/sentinel-hub/pkg/adapter"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

func waitDone(t *testing.T, ad interfaces.Adapter, handle *interfaces.JobHandle) *interfaces.PollResult {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		result, err := ad.Poll(context.Background(), handle)
		gt.NoError(t, err)
		if result.State != interfaces.PollPending {
			return result
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("process did not finish in time")
	return nil
}

func TestExecAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("successful run collects stdout", func(t *testing.T) {
		ad := adapter.NewExec(types.ToolNmap, "sh", func(target, mode string) []string {
			return []string{"-c", "printf '<nmaprun></nmaprun>'"}
		})

		handle, err := ad.Start(ctx, "10.0.0.1", "basic")
		gt.NoError(t, err)
		gt.V(t, handle.Tool).Equal(types.ToolNmap)

		result := waitDone(t, ad, handle)
		gt.V(t, result.State).Equal(interfaces.PollDone)

		raw, err := ad.Collect(ctx, handle)
		gt.NoError(t, err)
		gt.V(t, string(raw)).Equal("<nmaprun></nmaprun>")
	})

	t.Run("missing binary fails at start", func(t *testing.T) {
		ad := adapter.NewExec(types.ToolNmap, "/no/such/binary", func(target, mode string) []string {
			return nil
		})
		_, err := ad.Start(ctx, "10.0.0.1", "")
		gt.Error(t, err)
	})

	t.Run("nonzero exit reports failure on poll", func(t *testing.T) {
		ad := adapter.NewExec(types.ToolTrivy, "sh", func(target, mode string) []string {
			return []string{"-c", "echo boom >&2; exit 1"}
		})

		handle, err := ad.Start(ctx, "image:tag", "")
		gt.NoError(t, err)

		result := waitDone(t, ad, handle)
		gt.V(t, result.State).Equal(interfaces.PollFailed)
		gt.S(t, result.Message).Contains("boom")

		// Handle is forgotten once the failure is observed; repeated
		// failing runs must not accumulate sessions.
		_, err = ad.Poll(ctx, handle)
		gt.Error(t, err)
	})

	t.Run("collect before exit is a protocol error", func(t *testing.T) {
		ad := adapter.NewExec(types.ToolTShark, "sleep", func(target, mode string) []string {
			return []string{"5"}
		})

		handle, err := ad.Start(ctx, "eth0", "")
		gt.NoError(t, err)
		defer func() {
			gt.NoError(t, ad.Cancel(ctx, handle))
		}()

		_, err = ad.Collect(ctx, handle)
		gt.Error(t, err)
	})

	t.Run("cancel kills a running process", func(t *testing.T) {
		ad := adapter.NewExec(types.ToolTShark, "sleep", func(target, mode string) []string {
			return []string{"60"}
		})

		handle, err := ad.Start(ctx, "eth0", "")
		gt.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			done <- ad.Cancel(ctx, handle)
		}()

		select {
		case err := <-done:
			gt.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("cancel did not return")
		}

		// Handle is forgotten after cancel.
		_, err = ad.Poll(ctx, handle)
		gt.Error(t, err)
	})

	t.Run("unknown handle is a protocol error", func(t *testing.T) {
		ad := adapter.NewExec(types.ToolNmap, "sh", adapter.NmapArgv)
		_, err := ad.Poll(ctx, &interfaces.JobHandle{Tool: types.ToolNmap, Ref: "nope"})
		gt.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	registry := adapter.NewRegistry()

	t.Run("unregistered tool is an error", func(t *testing.T) {
		_, err := registry.Get(types.ToolZAP)
		gt.Error(t, err)
	})

	t.Run("registered adapter is returned", func(t *testing.T) {
		ad := adapter.NewExec(types.ToolNmap, "nmap", adapter.NmapArgv)
		registry.Register(types.ToolNmap, ad)

		got, err := registry.Get(types.ToolNmap)
		gt.NoError(t, err)
		gt.V(t, got).Equal(interfaces.Adapter(ad))
	})

	t.Run("default and overridden timeouts", func(t *testing.T) {
		gt.V(t, registry.Timeout(types.ToolOpenVAS)).Equal(60 * time.Minute)
		gt.V(t, registry.Timeout(types.ToolName("unknown"))).Equal(5 * time.Minute)

		registry.SetTimeout(types.ToolNmap, 42*time.Second)
		gt.V(t, registry.Timeout(types.ToolNmap)).Equal(42 * time.Second)
	})
}
