package adapter

import (
	"bytes"
	"context"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// ExecAdapter drives a local command-line tool. Start spawns the process and
// returns immediately; completion is observed through Poll. Used for fast
// local tools (nmap, trivy, tshark).
type ExecAdapter struct {
	tool    types.ToolName
	binPath string
	argv    ArgvBuilder

	mu       sync.Mutex
	sessions map[string]*execSession
}

// ArgvBuilder renders the command arguments for one scan invocation.
type ArgvBuilder func(target, mode string) []string

type execSession struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
	stdout bytes.Buffer
	stderr bytes.Buffer
	err    error
}

func NewExec(tool types.ToolName, binPath string, argv ArgvBuilder) *ExecAdapter {
	return &ExecAdapter{
		tool:     tool,
		binPath:  binPath,
		argv:     argv,
		sessions: make(map[string]*execSession),
	}
}

func (x *ExecAdapter) Start(ctx context.Context, target, mode string) (*interfaces.JobHandle, error) {
	procCtx, cancel := context.WithCancel(context.Background())

	args := x.argv(target, mode)
	cmd := exec.CommandContext(procCtx, x.binPath, args...) // #nosec G204: argv comes from the per-tool builder, not user input

	session := &execSession{
		cmd:    cmd,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	cmd.Stdout = &session.stdout
	cmd.Stderr = &session.stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, goerr.Wrap(types.ErrAdapterStart, "failed to spawn process",
			goerr.V("tool", x.tool),
			goerr.V("bin", x.binPath),
			goerr.V("cause", err.Error()),
		)
	}

	go func() {
		session.err = cmd.Wait()
		close(session.done)
	}()

	ref := uuid.NewString()
	x.mu.Lock()
	x.sessions[ref] = session
	x.mu.Unlock()

	return &interfaces.JobHandle{
		Tool:   x.tool,
		Target: target,
		Mode:   mode,
		Ref:    ref,
	}, nil
}

func (x *ExecAdapter) Poll(ctx context.Context, handle *interfaces.JobHandle) (*interfaces.PollResult, error) {
	session, err := x.session(handle)
	if err != nil {
		return nil, err
	}

	select {
	case <-session.done:
		if session.err != nil {
			// A failed process sees neither Collect nor Cancel, so the
			// session is released here. The handle is forgotten.
			x.mu.Lock()
			delete(x.sessions, handle.Ref)
			x.mu.Unlock()

			return &interfaces.PollResult{
				State:   interfaces.PollFailed,
				Message: session.errorText(),
			}, nil
		}
		return &interfaces.PollResult{State: interfaces.PollDone, Progress: 100}, nil
	default:
		return &interfaces.PollResult{State: interfaces.PollPending}, nil
	}
}

func (x *ExecAdapter) Collect(ctx context.Context, handle *interfaces.JobHandle) ([]byte, error) {
	session, err := x.session(handle)
	if err != nil {
		return nil, err
	}

	select {
	case <-session.done:
	default:
		return nil, goerr.Wrap(types.ErrAdapterProtocol, "collect before process exit",
			goerr.V("tool", x.tool),
			goerr.V("ref", handle.Ref),
		)
	}

	x.mu.Lock()
	delete(x.sessions, handle.Ref)
	x.mu.Unlock()

	if session.err != nil {
		return nil, goerr.Wrap(types.ErrAdapterStart, "process exited with error",
			goerr.V("tool", x.tool),
			goerr.V("stderr", session.errorText()),
		)
	}

	return session.stdout.Bytes(), nil
}

func (x *ExecAdapter) Cancel(ctx context.Context, handle *interfaces.JobHandle) error {
	session, err := x.session(handle)
	if err != nil {
		return err
	}

	session.cancel()
	<-session.done

	x.mu.Lock()
	delete(x.sessions, handle.Ref)
	x.mu.Unlock()

	return nil
}

func (x *ExecAdapter) session(handle *interfaces.JobHandle) (*execSession, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	session, ok := x.sessions[handle.Ref]
	if !ok {
		return nil, goerr.Wrap(types.ErrAdapterProtocol, "unknown job handle",
			goerr.V("tool", x.tool),
			goerr.V("ref", handle.Ref),
		)
	}
	return session, nil
}

func (x *execSession) errorText() string {
	if stderr := x.stderr.String(); stderr != "" {
		return stderr
	}
	if x.err != nil {
		return x.err.Error()
	}
	return ""
}
