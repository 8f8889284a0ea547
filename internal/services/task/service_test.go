package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/pizarra/internal/events"
	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/services/section"
	"github.com/thenoetrevino/pizarra/internal/testutil"
	"github.com/thenoetrevino/pizarra/internal/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type fixture struct {
	svc      Service
	sections section.Service
	flaky    *testutil.FlakyStore
	gated    *testutil.GatedStore
	pub      *testutil.RecordingPublisher
	ids      []types.SectionID // Seeded sections A, B, C
}

func setup(t *testing.T) *fixture {
	t.Helper()
	_, repo := testutil.SetupTestStore(t)
	ids := testutil.SeedSections(t, repo, "A", "B", "C")

	flaky := testutil.NewFlakyStore(repo)
	gated := testutil.NewGatedStore(flaky)
	pub := testutil.NewRecordingPublisher("self")

	sections := section.NewService(gated, nil, testutil.TestBoard)
	require.NoError(t, sections.Refresh(context.Background()))

	svc := NewService(gated, sections, pub, testutil.TestBoard)
	return &fixture{svc: svc, sections: sections, flaky: flaky, gated: gated, pub: pub, ids: ids}
}

// addTask creates a task through the service in the given section
func (f *fixture) addTask(t *testing.T, title string, sectionID types.SectionID) types.TaskID {
	t.Helper()
	id, err := f.svc.Create(context.Background(), CreateTaskRequest{Title: title, SectionID: sectionID})
	require.NoError(t, err)
	return id
}

func (f *fixture) get(t *testing.T, id types.TaskID) models.Task {
	t.Helper()
	task, ok := f.svc.Get(id)
	require.True(t, ok, "task %s should exist locally", id)
	return task
}

// storedTask reads a task straight from the store
func (f *fixture) storedTask(t *testing.T, id types.TaskID) (models.Task, bool) {
	t.Helper()
	tasks, err := f.flaky.DataStore.ListTasks(context.Background())
	require.NoError(t, err)
	for _, task := range tasks {
		if task.ID == id {
			return task, true
		}
	}
	return models.Task{}, false
}

func titlesOf(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// ============================================================================
// CREATE TESTS
// ============================================================================

func TestCreate(t *testing.T) {
	f := setup(t)

	id, err := f.svc.Create(context.Background(), CreateTaskRequest{
		Title:       "  Write release notes ",
		Description: "from the chat",
		SectionID:   f.ids[1],
		Assignee:    "u1",
	})
	require.NoError(t, err)

	task := f.get(t, id)
	assert.Equal(t, "Write release notes", task.Title)
	assert.Equal(t, "from the chat", task.Description)
	assert.Equal(t, f.ids[1], task.SectionID)
	assert.Equal(t, 1, task.StageIndex)
	assert.Equal(t, types.UserID("u1"), task.Assignee)

	stored, ok := f.storedTask(t, id)
	require.True(t, ok)
	assert.Equal(t, 1, stored.StageIndex)
	assert.Len(t, f.pub.EventsOfType(events.EventTasksChanged), 1)
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateTaskRequest{Title: "  ", SectionID: f.ids[0]})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = f.svc.Create(ctx, CreateTaskRequest{Title: "t"})
	assert.ErrorIs(t, err, models.ErrInvalidReference)

	_, err = f.svc.Create(ctx, CreateTaskRequest{Title: "t", SectionID: "missing"})
	assert.ErrorIs(t, err, models.ErrInvalidReference)

	_, err = f.svc.Create(ctx, CreateTaskRequest{Title: "t", SectionID: types.PendingSectionID("x")})
	assert.ErrorIs(t, err, models.ErrInvalidReference)

	assert.Zero(t, f.flaky.Calls(testutil.OpCreateTask))
	assert.Empty(t, f.svc.List())
}

func TestCreate_FailureAddsNothing(t *testing.T) {
	f := setup(t)
	f.flaky.FailNext(testutil.OpCreateTask, models.ErrStoreUnavailable)

	_, err := f.svc.Create(context.Background(), CreateTaskRequest{Title: "t", SectionID: f.ids[0]})
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Empty(t, f.svc.List())
	assert.Empty(t, f.pub.Events())
}

// ============================================================================
// UPDATE TESTS
// ============================================================================

func TestUpdate(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "old", f.ids[0])

	err := f.svc.Update(context.Background(), id, models.TaskPatch{
		Title:       ptr("new"),
		Description: ptr("details"),
		Assignee:    ptr(types.UserID("u2")),
	})
	require.NoError(t, err)

	task := f.get(t, id)
	assert.Equal(t, "new", task.Title)
	assert.Equal(t, "details", task.Description)
	assert.Equal(t, types.UserID("u2"), task.Assignee)

	stored, _ := f.storedTask(t, id)
	assert.Equal(t, "new", stored.Title)
	assert.Equal(t, "details", stored.Description)
}

func TestUpdate_UnknownTask(t *testing.T) {
	f := setup(t)

	err := f.svc.Update(context.Background(), "missing", models.TaskPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, models.ErrInvalidReference)
	assert.Zero(t, f.flaky.Calls(testutil.OpUpdateTask))
}

func TestUpdate_NoOpSkipsStore(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "same", f.ids[0])

	require.NoError(t, f.svc.Update(context.Background(), id, models.TaskPatch{}))
	require.NoError(t, f.svc.Update(context.Background(), id, models.TaskPatch{Title: ptr("same")}))

	assert.Zero(t, f.flaky.Calls(testutil.OpUpdateTask))
}

func TestUpdate_EmptyTitle(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])

	err := f.svc.Update(context.Background(), id, models.TaskPatch{Title: ptr(" ")})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Equal(t, "t", f.get(t, id).Title)
}

func TestUpdate_SectionResolvesStage(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])

	require.NoError(t, f.svc.Update(context.Background(), id, models.TaskPatch{SectionID: &f.ids[2]}))

	task := f.get(t, id)
	assert.Equal(t, f.ids[2], task.SectionID)
	assert.Equal(t, 2, task.StageIndex)
}

func TestUpdate_FailureRestoresSnapshot(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	before := f.get(t, id)
	f.flaky.FailNext(testutil.OpUpdateTask, models.ErrStoreUnavailable)

	err := f.svc.Update(context.Background(), id, models.TaskPatch{Title: ptr("changed")})
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Equal(t, before, f.get(t, id))
}

func TestUpdate_NotFoundPrunes(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	f.flaky.FailNext(testutil.OpUpdateTask, models.ErrNotFound)

	err := f.svc.Update(context.Background(), id, models.TaskPatch{Title: ptr("changed")})
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, ok := f.svc.Get(id)
	assert.False(t, ok)
}

// ============================================================================
// MOVE TESTS
// ============================================================================

func TestMoveToSection(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])

	require.NoError(t, f.svc.MoveToSection(context.Background(), id, f.ids[2], 2))

	task := f.get(t, id)
	assert.Equal(t, f.ids[2], task.SectionID)
	assert.Equal(t, 2, task.StageIndex)
	stored, _ := f.storedTask(t, id)
	assert.Equal(t, f.ids[2], stored.SectionID)
	assert.Equal(t, 2, stored.StageIndex)
	assert.Equal(t, 1, f.flaky.Calls(testutil.OpUpdateTask))
}

func TestMoveToSection_NegativeStageResolves(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])

	require.NoError(t, f.svc.MoveToSection(context.Background(), id, f.ids[1], -1))
	assert.Equal(t, 1, f.get(t, id).StageIndex)
}

func TestMoveToSection_SamePlaceIsNoOp(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[1])

	require.NoError(t, f.svc.MoveToSection(context.Background(), id, f.ids[1], 1))
	assert.Zero(t, f.flaky.Calls(testutil.OpUpdateTask))
}

func TestMoveToSection_UnknownTarget(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])

	err := f.svc.MoveToSection(context.Background(), id, "missing", 0)
	assert.ErrorIs(t, err, models.ErrInvalidReference)
	assert.Equal(t, f.ids[0], f.get(t, id).SectionID)
}

func TestMoveToSection_FailureRestoresSectionAndStage(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	f.flaky.FailNext(testutil.OpUpdateTask, models.ErrStoreUnavailable)

	err := f.svc.MoveToSection(context.Background(), id, f.ids[1], 1)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)

	task := f.get(t, id)
	assert.Equal(t, f.ids[0], task.SectionID)
	assert.Equal(t, 0, task.StageIndex)
}

func TestMoveToSection_OptimisticStateVisibleInFlight(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	release := f.gated.Hold(testutil.OpUpdateTask)

	done := make(chan error, 1)
	go func() { done <- f.svc.MoveToSection(context.Background(), id, f.ids[1], 1) }()
	f.gated.WaitEntered(t, testutil.OpUpdateTask)

	assert.Equal(t, f.ids[1], f.get(t, id).SectionID)
	stored, _ := f.storedTask(t, id)
	assert.Equal(t, f.ids[0], stored.SectionID)

	release()
	require.NoError(t, <-done)
}

// ============================================================================
// STEP TESTS
// ============================================================================

func TestStepForward_ThroughEverySection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.addTask(t, "t1", f.ids[0])

	require.NoError(t, f.svc.StepForward(ctx, id))
	task := f.get(t, id)
	assert.Equal(t, f.ids[1], task.SectionID)
	assert.Equal(t, 1, task.StageIndex)

	require.NoError(t, f.svc.StepForward(ctx, id))
	task = f.get(t, id)
	assert.Equal(t, f.ids[2], task.SectionID)
	assert.Equal(t, 2, task.StageIndex)

	// Last section: no error and no remote call
	calls := f.flaky.Calls(testutil.OpUpdateTask)
	require.NoError(t, f.svc.StepForward(ctx, id))
	assert.Equal(t, f.ids[2], f.get(t, id).SectionID)
	assert.Equal(t, calls, f.flaky.Calls(testutil.OpUpdateTask))
}

func TestStepBackward(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.addTask(t, "t", f.ids[1])

	require.NoError(t, f.svc.StepBackward(ctx, id))
	assert.Equal(t, f.ids[0], f.get(t, id).SectionID)

	require.NoError(t, f.svc.StepBackward(ctx, id))
	assert.Equal(t, f.ids[0], f.get(t, id).SectionID)
	assert.Equal(t, 1, f.flaky.Calls(testutil.OpUpdateTask))
}

func TestStep_UsesLiveOrdering(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.addTask(t, "t", f.ids[0])

	// [A, B, C] becomes [B, C, A]; A is now last
	require.NoError(t, f.sections.Reorder(ctx, 0, 2))

	back, forward := f.svc.CanStep(id)
	assert.True(t, back)
	assert.False(t, forward)

	require.NoError(t, f.svc.StepBackward(ctx, id))
	task := f.get(t, id)
	assert.Equal(t, f.ids[2], task.SectionID)
	assert.Equal(t, 1, task.StageIndex)
}

func TestCanStep(t *testing.T) {
	f := setup(t)
	first := f.addTask(t, "first", f.ids[0])
	middle := f.addTask(t, "middle", f.ids[1])
	last := f.addTask(t, "last", f.ids[2])

	back, forward := f.svc.CanStep(first)
	assert.False(t, back)
	assert.True(t, forward)

	back, forward = f.svc.CanStep(middle)
	assert.True(t, back)
	assert.True(t, forward)

	back, forward = f.svc.CanStep(last)
	assert.True(t, back)
	assert.False(t, forward)

	back, forward = f.svc.CanStep("missing")
	assert.False(t, back)
	assert.False(t, forward)
}

// ============================================================================
// DELETE TESTS
// ============================================================================

func TestDelete(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])

	require.NoError(t, f.svc.Delete(context.Background(), id))

	_, ok := f.svc.Get(id)
	assert.False(t, ok)
	_, ok = f.storedTask(t, id)
	assert.False(t, ok)
}

func TestDelete_RemovedSynchronously(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t1", f.ids[0])
	release := f.gated.Hold(testutil.OpDeleteTask)

	done := make(chan error, 1)
	go func() { done <- f.svc.Delete(context.Background(), id) }()
	f.gated.WaitEntered(t, testutil.OpDeleteTask)

	_, ok := f.svc.Get(id)
	assert.False(t, ok, "task should disappear before the store confirms")

	release()
	require.NoError(t, <-done)
}

func TestDelete_FailureReinsertsAtOriginalPosition(t *testing.T) {
	f := setup(t)
	f.addTask(t, "first", f.ids[0])
	middle := f.addTask(t, "t1", f.ids[0])
	f.addTask(t, "last", f.ids[0])
	f.flaky.FailNext(testutil.OpDeleteTask, models.ErrStoreUnavailable)

	err := f.svc.Delete(context.Background(), middle)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Equal(t, []string{"first", "t1", "last"}, titlesOf(f.svc.List()))
}

func TestDelete_NotFoundStaysPruned(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	f.flaky.FailNext(testutil.OpDeleteTask, models.ErrNotFound)

	err := f.svc.Delete(context.Background(), id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, ok := f.svc.Get(id)
	assert.False(t, ok)
}

func TestDelete_UnknownTask(t *testing.T) {
	f := setup(t)

	err := f.svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrInvalidReference)
}

// ============================================================================
// CONCURRENCY TESTS
// ============================================================================

func TestSameTaskWritesAreFIFO(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.addTask(t, "t", f.ids[0])
	release := f.gated.Hold(testutil.OpUpdateTask)

	first := make(chan error, 1)
	go func() { first <- f.svc.StepForward(ctx, id) }()
	f.gated.WaitEntered(t, testutil.OpUpdateTask)

	second := make(chan error, 1)
	go func() { second <- f.svc.StepForward(ctx, id) }()

	release()
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	// The second step starts from the settled result of the first
	task := f.get(t, id)
	assert.Equal(t, f.ids[2], task.SectionID)
	stored, _ := f.storedTask(t, id)
	assert.Equal(t, f.ids[2], stored.SectionID)
}

// stalledPublisher holds every SendEvent until unblock is closed
type stalledPublisher struct {
	*testutil.RecordingPublisher
	entered chan struct{}
	unblock chan struct{}
}

func (p *stalledPublisher) SendEvent(event events.Event) error {
	select {
	case p.entered <- struct{}{}:
	default:
	}
	<-p.unblock
	return p.RecordingPublisher.SendEvent(event)
}

func TestSlowPublishDoesNotHoldTaskQueue(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.SetupTestStore(t)
	ids := testutil.SeedSections(t, repo, "A", "B", "C")
	id := testutil.SeedTask(t, repo, models.Task{Title: "t", SectionID: ids[0]})

	sections := section.NewService(repo, nil, testutil.TestBoard)
	require.NoError(t, sections.Refresh(ctx))
	pub := &stalledPublisher{
		RecordingPublisher: testutil.NewRecordingPublisher("self"),
		entered:            make(chan struct{}, 1),
		unblock:            make(chan struct{}),
	}
	svc := NewService(repo, sections, pub, testutil.TestBoard)
	require.NoError(t, svc.Refresh(ctx))

	first := make(chan error, 1)
	go func() { first <- svc.StepForward(ctx, id) }()
	select {
	case <-pub.entered:
	case <-time.After(time.Second):
		t.Fatal("first step never published")
	}

	second := make(chan error, 1)
	go func() { second <- svc.StepForward(ctx, id) }()

	// The second write reaches the store while the first publish is stuck
	require.Eventually(t, func() bool {
		tasks, err := repo.ListTasks(ctx)
		return err == nil && len(tasks) == 1 && tasks[0].SectionID == ids[2]
	}, time.Second, 10*time.Millisecond)

	close(pub.unblock)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Len(t, pub.EventsOfType(events.EventTasksChanged), 2)
}

func TestQueuedWriteSeesRolledBackState(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.addTask(t, "t", f.ids[0])
	f.flaky.FailNext(testutil.OpUpdateTask, models.ErrStoreUnavailable)
	release := f.gated.Hold(testutil.OpUpdateTask)

	first := make(chan error, 1)
	go func() { first <- f.svc.StepForward(ctx, id) }()
	f.gated.WaitEntered(t, testutil.OpUpdateTask)

	second := make(chan error, 1)
	go func() { second <- f.svc.StepForward(ctx, id) }()

	release()
	assert.ErrorIs(t, <-first, models.ErrStoreUnavailable)
	require.NoError(t, <-second)

	// Only one step landed, from A to B
	assert.Equal(t, f.ids[1], f.get(t, id).SectionID)
}

func TestRefreshDuringFlightSkipsRollback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.addTask(t, "t", f.ids[0])
	f.flaky.FailNext(testutil.OpUpdateTask, models.ErrStoreUnavailable)
	release := f.gated.Hold(testutil.OpUpdateTask)

	done := make(chan error, 1)
	go func() { done <- f.svc.Update(ctx, id, models.TaskPatch{Title: ptr("mine")}) }()
	f.gated.WaitEntered(t, testutil.OpUpdateTask)

	// A collaborator's edit lands through a refresh before ours fails
	require.NoError(t, f.flaky.DataStore.UpdateTask(ctx, id, models.TaskPatch{Title: ptr("theirs")}))
	require.NoError(t, f.svc.Refresh(ctx))

	release()
	assert.ErrorIs(t, <-done, models.ErrStoreUnavailable)
	assert.Equal(t, "theirs", f.get(t, id).Title)
}

func TestRefresh_ReplacesState(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mine := f.addTask(t, "mine", f.ids[0])

	theirs := testutil.SeedTask(t, f.flaky.DataStore, models.Task{Title: "theirs", SectionID: f.ids[1], StageIndex: 1})
	require.NoError(t, f.flaky.DataStore.DeleteTask(ctx, mine))

	require.NoError(t, f.svc.Refresh(ctx))
	assert.Equal(t, []string{"theirs"}, titlesOf(f.svc.List()))
	assert.Equal(t, theirs, f.svc.List()[0].ID)
}

func TestSubscribe_NotifiedOnOptimisticChange(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	ch, cancel := f.svc.Subscribe()
	defer cancel()

	require.NoError(t, f.svc.StepForward(context.Background(), id))

	select {
	case <-ch:
	default:
		t.Fatal("expected a change notification")
	}
}
