package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/pizarra/internal/board"
	"github.com/thenoetrevino/pizarra/internal/config"
	"github.com/thenoetrevino/pizarra/internal/drag"
	"github.com/thenoetrevino/pizarra/internal/events"
	"github.com/thenoetrevino/pizarra/internal/services/task"
	"github.com/thenoetrevino/pizarra/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("PIZARRA_HOME", t.TempDir())
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "board.db")
	cfg.Events.Driver = config.EventsNone
	return cfg
}

func TestNew(t *testing.T) {
	_, repo := testutil.SetupTestStore(t)

	app := New(repo, testutil.TestBoard)
	require.NotNil(t, app)

	assert.NotNil(t, app.Sections)
	assert.NotNil(t, app.Tasks)
	assert.NotNil(t, app.Board)
	assert.NotNil(t, app.Drag)
	assert.Nil(t, app.Events())
	assert.Equal(t, testutil.TestBoard, app.Board.ID())
	assert.Equal(t, board.OrphanReject, app.Board.Policy())
}

func TestNew_ServicesShareOneBoard(t *testing.T) {
	_, repo := testutil.SetupTestStore(t)
	pub := testutil.NewRecordingPublisher("me")
	app := New(repo, testutil.TestBoard,
		WithEventPublisher(pub),
		WithDefaultSections("Todo", "Done"),
		WithOrphanPolicy(board.OrphanCascade),
	)
	ctx := context.Background()

	require.NoError(t, app.Board.Load(ctx))
	sections := app.Sections.List()
	require.Len(t, sections, 2)

	id, err := app.Tasks.Create(ctx, task.CreateTaskRequest{Title: "Ship", SectionID: sections[0].ID})
	require.NoError(t, err)

	// The coordinator drives the same repositories
	require.NoError(t, app.Drag.StartTaskDrag(id))
	res, err := app.Drag.Drop(ctx, drag.TaskTarget(sections[1].ID))
	require.NoError(t, err)
	assert.Equal(t, drag.ResultApplied, res)

	got, _ := app.Tasks.Get(id)
	assert.Equal(t, sections[1].ID, got.SectionID)

	assert.NotEmpty(t, pub.EventsOfType(events.EventSectionsChanged))
	assert.NotEmpty(t, pub.EventsOfType(events.EventTasksChanged))
	for _, e := range pub.Events() {
		assert.Equal(t, testutil.TestBoard, e.BoardID)
	}

	require.NoError(t, app.Board.DeleteSection(ctx, sections[1].ID))
	assert.Empty(t, app.Tasks.List())
}

func TestClose(t *testing.T) {
	_, repo := testutil.SetupTestStore(t)
	app := New(repo, testutil.TestBoard)

	assert.NoError(t, app.Close())
	assert.NoError(t, app.Close())
}

func TestOpen_SQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Board.ID = "team"
	ctx := context.Background()

	app, err := Open(ctx, cfg)
	require.NoError(t, err)

	require.NoError(t, app.Board.Load(ctx))
	assert.Equal(t, 3, app.Sections.Len(), "default sections seeded")
	require.NoError(t, app.Close())

	// Documents survive a reopen
	app, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = app.Close() }()
	require.NoError(t, app.Board.Load(ctx))

	labels := []string{}
	for _, s := range app.Sections.List() {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"Todo", "In Progress", "Done"}, labels)
}

func TestOpen_BadOrphanPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Board.OrphanPolicy = "explode"

	_, err := Open(context.Background(), cfg)
	assert.ErrorIs(t, err, board.ErrUnknownOrphanPolicy)
}

func TestOpen_SocketWithoutDaemonWorksOffline(t *testing.T) {
	cfg := testConfig(t)
	cfg.Events.Driver = config.EventsSocket
	cfg.Events.SocketPath = filepath.Join(t.TempDir(), "missing.sock")

	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	assert.Nil(t, app.Events())
}

func TestOpen_SocketWithDaemon(t *testing.T) {
	socketPath := testutil.StartFeed(t)

	cfg := testConfig(t)
	cfg.Events.Driver = config.EventsSocket
	cfg.Events.SocketPath = socketPath

	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	require.NotNil(t, app.Events())
	assert.NotEmpty(t, app.Events().Origin())
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Events.Driver = config.EventsRedis
	cfg.Events.RedisAddr = mr.Addr()

	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)

	require.NotNil(t, app.Events())
	_, ok := app.Events().(*events.RedisPublisher)
	assert.True(t, ok)
	require.NoError(t, app.Close())
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Events.Driver = config.EventsRedis
	cfg.Events.RedisAddr = addr

	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	assert.Nil(t, app.Events())
}

func TestOpen_StoreErrorsSurface(t *testing.T) {
	cfg := testConfig(t)
	// A directory cannot be opened as a database file
	cfg.Store.Path = t.TempDir()

	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}
