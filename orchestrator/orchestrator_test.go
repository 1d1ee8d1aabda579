package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh/artifact"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/runlog"
	"github.com/hupe1980/contentmesh/task"
)

func testClock() core.Clock {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var tick int64
	return func() time.Time {
		return base.Add(time.Duration(atomic.AddInt64(&tick, 1)) * time.Second)
	}
}

// recordingLogger captures log messages so tests can assert on coordination
// decisions that leave no other observable trace. Messages start with a dotted
// event name followed by formatted attributes.
type recordingLogger struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record(msg) }

// count returns how many captured messages carry the event name.
func (l *recordingLogger) count(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e == event || strings.HasPrefix(e, event+" ") {
			n++
		}
	}
	return n
}

// scriptedAgent is a bare protocol participant whose reply behavior is set
// per test, used to drive dispatch paths well-behaved agents never take.
type scriptedAgent struct {
	id           string
	capabilities []string
	handle       func(ctx context.Context, msg core.Message, emit core.EmitFunc) (core.Message, error)
}

func (a *scriptedAgent) ID() string   { return a.id }
func (a *scriptedAgent) Name() string { return a.id }

func (a *scriptedAgent) Card() core.AgentCard {
	card := core.AgentCard{AgentID: a.id, Name: a.id}
	for _, name := range a.capabilities {
		card.Capabilities = append(card.Capabilities, core.CapabilitySpec{Name: name})
	}
	return card
}

func (a *scriptedAgent) HandleMessage(ctx context.Context, msg core.Message, emit core.EmitFunc) (core.Message, error) {
	return a.handle(ctx, msg, emit)
}

var _ core.Agent = (*scriptedAgent)(nil)

func draftReply(msg core.Message, artifactID, body string) core.Message {
	a := core.Artifact{
		ID:          artifactID,
		Kind:        core.ArtifactKindDraftText,
		ContentType: core.ContentTypeText,
		Body:        []byte(body),
	}
	return core.NewResultReply(artifactID+"-reply", msg, a, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC))
}

// testEnv wires an orchestrator to stores and a recording logger the test
// keeps a handle on.
type testEnv struct {
	o         *Orchestrator
	tasks     *task.InMemoryStore
	artifacts *artifact.InMemoryStore
	runs      *runlog.InMemoryStore
	log       *recordingLogger
}

func newTestEnv(t *testing.T, optFns ...func(o *Options)) *testEnv {
	t.Helper()

	env := &testEnv{
		tasks:     task.NewInMemoryStore(),
		artifacts: artifact.NewInMemoryStore(),
		runs:      runlog.NewInMemoryStore(),
		log:       &recordingLogger{},
	}
	base := func(o *Options) {
		o.TaskStore = env.tasks
		o.ArtifactStore = env.artifacts
		o.RunStore = env.runs
		o.IDGenerator = core.NewSequenceIDGenerator("id")
		o.Clock = testClock()
		o.Logger = env.log
	}
	env.o = New(append([]func(o *Options){base}, optFns...)...)
	return env
}

func TestNewDefaults(t *testing.T) {
	o := New()
	assert.Equal(t, "orchestrator", o.ID())

	_, err := o.AgentForCapability(core.CapabilityWriteContent)
	var unknown *core.UnknownCapabilityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, core.CapabilityWriteContent, unknown.Capability)
}

func TestRegisterAgent(t *testing.T) {
	t.Run("duplicate id is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		first := &scriptedAgent{id: "writer", capabilities: []string{core.CapabilityWriteContent}}
		require.NoError(t, env.o.RegisterAgent(first))

		err := env.o.RegisterAgent(&scriptedAgent{id: "writer"})
		var dup *core.DuplicateAgentError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "writer", dup.AgentID)
	})

	t.Run("first registrant keeps the capability", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.o.RegisterAgent(&scriptedAgent{id: "writer-1", capabilities: []string{core.CapabilityWriteContent}}))
		require.NoError(t, env.o.RegisterAgent(&scriptedAgent{id: "writer-2", capabilities: []string{core.CapabilityWriteContent}}))

		ag, err := env.o.AgentForCapability(core.CapabilityWriteContent)
		require.NoError(t, err)
		assert.Equal(t, "writer-1", ag.ID())
		assert.Equal(t, 1, env.log.count("orchestrator.capability.shadowed"))

		// The shadowed agent stays reachable by id.
		_, ok := env.o.Agent("writer-2")
		assert.True(t, ok)
	})

	t.Run("cards follow registration order", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.o.RegisterAgent(&scriptedAgent{id: "b", capabilities: []string{"second"}}))
		require.NoError(t, env.o.RegisterAgent(&scriptedAgent{id: "a", capabilities: []string{"first"}}))

		cards := env.o.Cards()
		require.Len(t, cards, 2)
		assert.Equal(t, "b", cards[0].AgentID)
		assert.Equal(t, "a", cards[1].AgentID)
	})
}

func TestAssignTaskAndWaitUnknownAgent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "ghost", core.CapabilityWriteContent, core.Input{})
	var unknown *core.UnknownAgentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.AgentID)

	// No task is minted for an unroutable assignment.
	tasks, err := env.tasks.ListByRun("run-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAssignTaskAndWaitSuccess(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.runs.Create("run-1", "edge computing", time.Now())
	require.NoError(t, err)

	worker := &scriptedAgent{
		id:           "writer",
		capabilities: []string{core.CapabilityWriteContent},
		handle: func(_ context.Context, msg core.Message, emit core.EmitFunc) (core.Message, error) {
			emit(core.NewStatusReply("m-progress", msg, core.TaskStatusInProgress, time.Now()))
			emit(core.NewStatusReply("m-done", msg, core.TaskStatusCompleted, time.Now()))
			return draftReply(msg, "art-1", "a draft"), nil
		},
	}
	require.NoError(t, env.o.RegisterAgent(worker))

	tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, core.Input{"topic": "edge computing"})
	require.NoError(t, err)

	assert.Equal(t, core.TaskStatusCompleted, tsk.Status)
	assert.Equal(t, "art-1", tsk.ArtifactID)
	assert.Nil(t, tsk.Err)
	assert.False(t, tsk.CompletedAt.IsZero())

	stored, err := env.o.Artifact("run-1", "art-1")
	require.NoError(t, err)
	assert.Equal(t, "a draft", stored.Text())

	// The run log holds the full exchange in order.
	run, err := env.o.Run("run-1")
	require.NoError(t, err)
	var kinds []core.MessageKind
	for _, m := range run.GetMessages() {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []core.MessageKind{
		core.MessageKindAssign,
		core.MessageKindStatusUpdate,
		core.MessageKindStatusUpdate,
		core.MessageKindResult,
	}, kinds)

	// The completed report was advisory; terminal state came from the reply.
	assert.Equal(t, 1, env.log.count("orchestrator.status.advisory"))
}

func TestAssignTaskAndWaitCompletesFromAssigned(t *testing.T) {
	env := newTestEnv(t)

	// A worker that never reports in_progress: the store catches the task up
	// so completion stays reachable through the lifecycle.
	worker := &scriptedAgent{
		id:           "writer",
		capabilities: []string{core.CapabilityWriteContent},
		handle: func(_ context.Context, msg core.Message, _ core.EmitFunc) (core.Message, error) {
			return draftReply(msg, "art-1", "a draft"), nil
		},
	}
	require.NoError(t, env.o.RegisterAgent(worker))

	tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, nil)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusCompleted, tsk.Status)
	assert.Equal(t, "art-1", tsk.ArtifactID)
}

func TestAssignTaskAndWaitErrorReply(t *testing.T) {
	env := newTestEnv(t)

	worker := &scriptedAgent{
		id:           "writer",
		capabilities: []string{core.CapabilityWriteContent},
		handle: func(_ context.Context, msg core.Message, emit core.EmitFunc) (core.Message, error) {
			emit(core.NewStatusReply("m-progress", msg, core.TaskStatusInProgress, time.Now()))
			emit(core.NewStatusReply("m-failed", msg, core.TaskStatusFailed, time.Now()))
			return core.NewErrorReply("m-err", msg, core.NewTransientError(core.CapabilityWriteContent, "backend down"), time.Now()), nil
		},
	}
	require.NoError(t, env.o.RegisterAgent(worker))

	tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, nil)
	require.Error(t, err)

	var terr *core.TaskError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, core.ErrorCodeTransient, terr.Code)

	assert.Equal(t, core.TaskStatusFailed, tsk.Status)
	require.NotNil(t, tsk.Err)
	assert.Equal(t, core.ErrorCodeTransient, tsk.Err.Code)
	assert.Empty(t, tsk.ArtifactID)
}

func TestAssignTaskAndWaitRefusal(t *testing.T) {
	t.Run("unknown capability", func(t *testing.T) {
		env := newTestEnv(t)
		worker := &scriptedAgent{
			id:           "writer",
			capabilities: []string{core.CapabilityWriteContent},
			handle: func(_ context.Context, _ core.Message, _ core.EmitFunc) (core.Message, error) {
				return core.Message{}, &core.UnknownCapabilityError{AgentID: "writer", Capability: "ghost_capability"}
			},
		}
		require.NoError(t, env.o.RegisterAgent(worker))

		tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", "ghost_capability", nil)
		require.Error(t, err)

		var terr *core.TaskError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, core.ErrorCodeUnknownCapability, terr.Code)
		assert.Equal(t, core.TaskStatusFailed, tsk.Status)
		assert.Equal(t, 1, env.log.count("orchestrator.assign.refused"))
	})

	t.Run("generic refusal becomes an execution error", func(t *testing.T) {
		env := newTestEnv(t)
		worker := &scriptedAgent{
			id:           "writer",
			capabilities: []string{core.CapabilityWriteContent},
			handle: func(_ context.Context, _ core.Message, _ core.EmitFunc) (core.Message, error) {
				return core.Message{}, context.DeadlineExceeded
			},
		}
		require.NoError(t, env.o.RegisterAgent(worker))

		tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, nil)
		require.Error(t, err)

		var terr *core.TaskError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, core.ErrorCodeExecution, terr.Code)
		assert.Equal(t, "writer", terr.AgentID)
		assert.Equal(t, core.TaskStatusFailed, tsk.Status)
	})
}

func TestAssignTaskAndWaitTimeout(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.Config.AssignTimeout = 30 * time.Millisecond
	})

	release := make(chan struct{})
	worker := &scriptedAgent{
		id:           "writer",
		capabilities: []string{core.CapabilityWriteContent},
		handle: func(_ context.Context, msg core.Message, _ core.EmitFunc) (core.Message, error) {
			<-release
			return draftReply(msg, "art-late", "late draft"), nil
		},
	}
	require.NoError(t, env.o.RegisterAgent(worker))

	tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, nil)
	require.Error(t, err)

	var terr *core.TaskError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, core.ErrorCodeTimeout, terr.Code)
	assert.Contains(t, terr.Message, "did not finish within")
	assert.Equal(t, "writer", terr.AgentID)
	assert.Equal(t, core.TaskStatusFailed, tsk.Status)

	// Let the worker finish late: its reply is dropped, never applied.
	close(release)
	assert.Eventually(t, func() bool {
		return env.log.count("orchestrator.reply.late") == 1
	}, time.Second, 5*time.Millisecond)

	stored, err := env.o.Task(tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusFailed, stored.Status)

	ids, err := env.artifacts.List("run-1")
	require.NoError(t, err)
	assert.Empty(t, ids, "late artifact must not be stored")
}

func TestAssignTaskAndWaitContextCancelled(t *testing.T) {
	env := newTestEnv(t)

	release := make(chan struct{})
	defer close(release)

	worker := &scriptedAgent{
		id:           "writer",
		capabilities: []string{core.CapabilityWriteContent},
		handle: func(_ context.Context, msg core.Message, _ core.EmitFunc) (core.Message, error) {
			<-release
			return draftReply(msg, "art-1", "a draft"), nil
		},
	}
	require.NoError(t, env.o.RegisterAgent(worker))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	tsk, err := env.o.AssignTaskAndWait(ctx, "run-1", "writer", core.CapabilityWriteContent, nil)
	require.Error(t, err)

	var terr *core.TaskError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, core.ErrorCodeTimeout, terr.Code)
	assert.Contains(t, terr.Message, "assignment cancelled")
	assert.Equal(t, core.TaskStatusFailed, tsk.Status)
}

func TestAssignTaskAndWaitReplyMismatch(t *testing.T) {
	cases := []struct {
		name   string
		tamper func(m *core.Message)
	}{
		{name: "wrong task id", tamper: func(m *core.Message) { m.TaskID = "task-999" }},
		{name: "wrong sender", tamper: func(m *core.Message) { m.SenderID = "impostor" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			worker := &scriptedAgent{
				id:           "writer",
				capabilities: []string{core.CapabilityWriteContent},
				handle: func(_ context.Context, msg core.Message, _ core.EmitFunc) (core.Message, error) {
					reply := draftReply(msg, "art-1", "a draft")
					tc.tamper(&reply)
					return reply, nil
				},
			}
			require.NoError(t, env.o.RegisterAgent(worker))

			tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, nil)
			require.Error(t, err)

			var terr *core.TaskError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, core.ErrorCodeExecution, terr.Code)
			assert.Contains(t, terr.Message, "did not match")
			assert.Equal(t, core.TaskStatusFailed, tsk.Status)
			assert.Equal(t, 1, env.log.count("orchestrator.reply.mismatch"))

			ids, err := env.artifacts.List("run-1")
			require.NoError(t, err)
			assert.Empty(t, ids, "mismatched reply artifact must not be stored")
		})
	}
}

func TestStatusReports(t *testing.T) {
	t.Run("duplicates are suppressed", func(t *testing.T) {
		env := newTestEnv(t)
		worker := &scriptedAgent{
			id:           "writer",
			capabilities: []string{core.CapabilityWriteContent},
			handle: func(_ context.Context, msg core.Message, emit core.EmitFunc) (core.Message, error) {
				emit(core.NewStatusReply("m-1", msg, core.TaskStatusInProgress, time.Now()))
				emit(core.NewStatusReply("m-2", msg, core.TaskStatusInProgress, time.Now()))
				return draftReply(msg, "art-1", "a draft"), nil
			},
		}
		require.NoError(t, env.o.RegisterAgent(worker))

		tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, nil)
		require.NoError(t, err)
		assert.Equal(t, core.TaskStatusCompleted, tsk.Status)
		assert.Equal(t, 1, env.log.count("orchestrator.task.in_progress"))
		assert.Equal(t, 1, env.log.count("orchestrator.status.duplicate"))
	})

	t.Run("terminal report alone does not resolve the task", func(t *testing.T) {
		env := newTestEnv(t)
		worker := &scriptedAgent{
			id:           "writer",
			capabilities: []string{core.CapabilityWriteContent},
			handle: func(_ context.Context, msg core.Message, emit core.EmitFunc) (core.Message, error) {
				// A lying completed report followed by an error reply: the
				// reply wins because only replies carry terminal state.
				emit(core.NewStatusReply("m-1", msg, core.TaskStatusCompleted, time.Now()))
				return core.NewErrorReply("m-2", msg, core.NewPermanentError(core.CapabilityWriteContent, "input rejected"), time.Now()), nil
			},
		}
		require.NoError(t, env.o.RegisterAgent(worker))

		tsk, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, nil)
		require.Error(t, err)
		assert.Equal(t, core.TaskStatusFailed, tsk.Status)
		require.NotNil(t, tsk.Err)
		assert.Equal(t, core.ErrorCodePermanent, tsk.Err.Code)
		assert.Equal(t, 1, env.log.count("orchestrator.status.advisory"))
	})
}

func TestWriteRunRecords(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.runs.Create("run-1", "edge computing", time.Now())
	require.NoError(t, err)

	good := &scriptedAgent{
		id:           "writer",
		capabilities: []string{core.CapabilityWriteContent},
		handle: func(_ context.Context, msg core.Message, _ core.EmitFunc) (core.Message, error) {
			return draftReply(msg, "art-1", "a draft"), nil
		},
	}
	bad := &scriptedAgent{
		id:           "researcher",
		capabilities: []string{core.CapabilityResearchTopic},
		handle: func(_ context.Context, msg core.Message, _ core.EmitFunc) (core.Message, error) {
			return core.NewErrorReply("m-err", msg, core.NewTransientError(core.CapabilityResearchTopic, "backend down"), time.Now()), nil
		},
	}
	require.NoError(t, env.o.RegisterAgent(good))
	require.NoError(t, env.o.RegisterAgent(bad))

	first, err := env.o.AssignTaskAndWait(context.Background(), "run-1", "writer", core.CapabilityWriteContent, nil)
	require.NoError(t, err)
	second, _ := env.o.AssignTaskAndWait(context.Background(), "run-1", "researcher", core.CapabilityResearchTopic, nil)

	var buf bytes.Buffer
	require.NoError(t, env.o.WriteRunRecords(&buf, "run-1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var completed core.TaskRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &completed))
	assert.Equal(t, first.ID, completed.TaskID)
	assert.Equal(t, core.TaskStatusCompleted, completed.Status)
	assert.Equal(t, core.ArtifactKindDraftText, completed.ArtifactKind)
	assert.Equal(t, len("a draft"), completed.ArtifactSize)

	var failed core.TaskRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))
	assert.Equal(t, second.ID, failed.TaskID)
	assert.Equal(t, core.TaskStatusFailed, failed.Status)
	assert.Equal(t, core.ErrorCodeTransient, failed.ErrorCode)
	assert.Empty(t, failed.ArtifactID)
}
