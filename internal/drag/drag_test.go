package drag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/services/section"
	"github.com/thenoetrevino/pizarra/internal/services/task"
	"github.com/thenoetrevino/pizarra/internal/testutil"
	"github.com/thenoetrevino/pizarra/internal/types"
)

type fixture struct {
	coord    *Coordinator
	tasks    task.Service
	sections section.Service
	flaky    *testutil.FlakyStore
	ids      []types.SectionID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	_, repo := testutil.SetupTestStore(t)
	ids := testutil.SeedSections(t, repo, "A", "B", "C")
	flaky := testutil.NewFlakyStore(repo)

	sections := section.NewService(flaky, nil, testutil.TestBoard)
	require.NoError(t, sections.Refresh(context.Background()))
	tasks := task.NewService(flaky, sections, nil, testutil.TestBoard)

	return &fixture{
		coord:    NewCoordinator(tasks, sections),
		tasks:    tasks,
		sections: sections,
		flaky:    flaky,
		ids:      ids,
	}
}

func (f *fixture) addTask(t *testing.T, title string, sectionID types.SectionID) types.TaskID {
	t.Helper()
	id, err := f.tasks.Create(context.Background(), task.CreateTaskRequest{Title: title, SectionID: sectionID})
	require.NoError(t, err)
	return id
}

func sectionIDs(sections []models.Section) []types.SectionID {
	out := make([]types.SectionID, len(sections))
	for i, s := range sections {
		out[i] = s.ID
	}
	return out
}

func TestStartTaskDrag_CapturesSource(t *testing.T) {
	f := setup(t)
	f.addTask(t, "other", f.ids[1])
	f.addTask(t, "first", f.ids[0])
	second := f.addTask(t, "second", f.ids[0])

	require.NoError(t, f.coord.StartTaskDrag(second))

	st := f.coord.State()
	assert.Equal(t, DraggingTask, st.Phase)
	assert.Equal(t, second, st.TaskID)
	assert.Equal(t, 1, st.SourceIndex)
	assert.True(t, st.Active())
}

func TestStart_WhileActive(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	require.NoError(t, f.coord.StartSectionDrag(f.ids[1]))

	assert.ErrorIs(t, f.coord.StartTaskDrag(id), models.ErrDragAlreadyActive)
	assert.ErrorIs(t, f.coord.StartSectionDrag(f.ids[0]), models.ErrDragAlreadyActive)

	st := f.coord.State()
	assert.Equal(t, DraggingSection, st.Phase)
	assert.Equal(t, f.ids[1], st.SectionID)
	assert.Equal(t, 1, st.SourceIndex)
}

func TestStart_UnknownIDs(t *testing.T) {
	f := setup(t)

	assert.ErrorIs(t, f.coord.StartTaskDrag("missing"), models.ErrInvalidReference)
	assert.ErrorIs(t, f.coord.StartSectionDrag("missing"), models.ErrInvalidReference)
	assert.Equal(t, Idle, f.coord.State().Phase)
}

func TestDragOver_RecordsHoverOnly(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])

	f.coord.DragOver(TaskTarget(f.ids[1]))
	assert.Nil(t, f.coord.State().Hover, "idle coordinator ignores hover")

	require.NoError(t, f.coord.StartTaskDrag(id))
	f.coord.DragOver(TaskTarget(f.ids[2]))

	st := f.coord.State()
	require.NotNil(t, st.Hover)
	assert.Equal(t, f.ids[2], st.Hover.SectionID)
	assert.Equal(t, f.ids[0], f.tasks.List()[0].SectionID)
	assert.Zero(t, f.flaky.Calls(testutil.OpUpdateTask))
}

func TestDropTask_MovesToSection(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	require.NoError(t, f.coord.StartTaskDrag(id))

	res, err := f.coord.Drop(context.Background(), TaskTarget(f.ids[2]))
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, res)

	got, _ := f.tasks.Get(id)
	assert.Equal(t, f.ids[2], got.SectionID)
	assert.Equal(t, 2, got.StageIndex)
	assert.Equal(t, Idle, f.coord.State().Phase)
}

func TestDropTask_SameSectionIsNoop(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[1])
	require.NoError(t, f.coord.StartTaskDrag(id))

	res, err := f.coord.Drop(context.Background(), TaskTarget(f.ids[1]))
	require.NoError(t, err)
	assert.Equal(t, ResultNoop, res)
	assert.Zero(t, f.flaky.Calls(testutil.OpUpdateTask))
	assert.Equal(t, Idle, f.coord.State().Phase)
}

func TestDrop_TaskTargetWhileDraggingSectionIsIgnored(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	before := f.sections.List()
	require.NoError(t, f.coord.StartSectionDrag(f.ids[0]))

	res, err := f.coord.Drop(context.Background(), TaskTarget(f.ids[2]))
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, res)

	got, _ := f.tasks.Get(id)
	assert.Equal(t, f.ids[0], got.SectionID)
	assert.Equal(t, before, f.sections.List())
	assert.Zero(t, f.flaky.Calls(testutil.OpUpdateTask))
	assert.Zero(t, f.flaky.Calls(testutil.OpBatchSectionOrder))
	assert.Equal(t, DraggingSection, f.coord.State().Phase, "session is untouched")
}

func TestDrop_WhileIdleIsIgnored(t *testing.T) {
	f := setup(t)

	res, err := f.coord.Drop(context.Background(), SectionTarget(0))
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, res)
}

func TestDropSection_Reorders(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.coord.StartSectionDrag(f.ids[2]))

	res, err := f.coord.Drop(context.Background(), SectionTarget(0))
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, res)
	assert.Equal(t, []types.SectionID{f.ids[2], f.ids[0], f.ids[1]}, sectionIDs(f.sections.List()))
}

func TestDropSection_SamePositionIsNoop(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.coord.StartSectionDrag(f.ids[2]))

	res, err := f.coord.Drop(context.Background(), SectionTarget(10))
	require.NoError(t, err)
	assert.Equal(t, ResultNoop, res)
	assert.Zero(t, f.flaky.Calls(testutil.OpBatchSectionOrder))
}

func TestDropSection_UsesCurrentIndexOfDraggedSection(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.coord.StartSectionDrag(f.ids[0]))

	// A collaborator moved A to the end mid-drag: [B, C, A]
	require.NoError(t, f.sections.Reorder(context.Background(), 0, 2))

	res, err := f.coord.Drop(context.Background(), SectionTarget(1))
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, res)
	assert.Equal(t, []types.SectionID{f.ids[1], f.ids[0], f.ids[2]}, sectionIDs(f.sections.List()))
}

func TestDrop_ErrorLeavesCoordinatorIdle(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	f.flaky.FailNext(testutil.OpUpdateTask, models.ErrStoreUnavailable)
	require.NoError(t, f.coord.StartTaskDrag(id))

	_, err := f.coord.Drop(context.Background(), TaskTarget(f.ids[1]))
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Equal(t, Idle, f.coord.State().Phase)

	got, _ := f.tasks.Get(id)
	assert.Equal(t, f.ids[0], got.SectionID)
}

func TestDrop_UnknownTargetSection(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	require.NoError(t, f.coord.StartTaskDrag(id))

	_, err := f.coord.Drop(context.Background(), TaskTarget("missing"))
	assert.ErrorIs(t, err, models.ErrInvalidReference)
	assert.Equal(t, Idle, f.coord.State().Phase)
}

func TestCancel(t *testing.T) {
	f := setup(t)
	id := f.addTask(t, "t", f.ids[0])
	require.NoError(t, f.coord.StartTaskDrag(id))
	f.coord.DragOver(TaskTarget(f.ids[1]))

	f.coord.Cancel()

	assert.Equal(t, State{}, f.coord.State())
	got, _ := f.tasks.Get(id)
	assert.Equal(t, f.ids[0], got.SectionID)
	assert.Zero(t, f.flaky.Calls(testutil.OpUpdateTask))
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "task", KindTask.String())
	assert.Equal(t, "dragging-section", DraggingSection.String())
	assert.Equal(t, "applied", ResultApplied.String())
}
