package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/cardclash/battle-sim/internal/catalog"
	"github.com/cardclash/battle-sim/internal/config"
	"github.com/cardclash/battle-sim/internal/game"
)

func sampleReplay(t *testing.T) *game.Replay {
	t.Helper()
	cat, err := catalog.Starter()
	require.NoError(t, err)
	d1, deck1, err := cat.BuildDeck("necromancer")
	require.NoError(t, err)
	d2, deck2, err := cat.BuildDeck("mage")
	require.NoError(t, err)

	e := game.NewEngine(zaptest.NewLogger(t))
	s, err := e.CreateInitialGameState("archive-game", deck1, deck2, d1.Faction, d2.Faction, d1.Tactics, d2.Tactics, "archive")
	require.NoError(t, err)
	s, err = e.RunToCompletion(s, 10000)
	require.NoError(t, err)
	r, err := e.NewReplay(s)
	require.NoError(t, err)
	return r
}

type stubSink struct {
	name string
	err  error
	got  []string
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Store(_ context.Context, r *game.Replay) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.got = append(s.got, r.GameID)
	return s.name + "://" + r.GameID, nil
}

func TestArchiveFansOut(t *testing.T) {
	r := sampleReplay(t)
	ok := &stubSink{name: "ok"}
	broken := &stubSink{name: "broken", err: errors.New("disk full")}
	other := &stubSink{name: "other"}
	a := New(zaptest.NewLogger(t), ok, broken, other)
	assert.Equal(t, 3, a.Len())

	locations, err := a.Store(context.Background(), r)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"ok://archive-game", "other://archive-game"}, locations)
	assert.Equal(t, []string{"archive-game"}, other.got)
}

func TestFileSink(t *testing.T) {
	r := sampleReplay(t)
	ctx := context.Background()
	for _, compress := range []bool{true, false} {
		dir := t.TempDir()
		sink := NewFileSink(dir, compress)

		ids, err := sink.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)

		_, err = sink.Store(ctx, r)
		require.NoError(t, err)
		ids, err = sink.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"archive-game"}, ids)

		loaded, err := NewFileSink(dir, !compress).Load(ctx, "archive-game")
		require.NoError(t, err)
		assert.Equal(t, r.Checksum, loaded.Checksum)
		assert.Len(t, loaded.ActionLog, len(r.ActionLog))

		_, err = sink.Load(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	}
}

type fakeRow struct {
	body []byte
	err  error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	*(dest[0].(*[]byte)) = f.body
	return nil
}

type fakeDB struct {
	execs [][]any
	body  []byte
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, append([]any{sql}, args...))
	if len(args) == 8 {
		f.body = args[7].([]byte)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.body == nil {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{body: f.body}
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func TestPostgresSink(t *testing.T) {
	r := sampleReplay(t)
	ctx := context.Background()
	db := &fakeDB{}
	sink := &PostgresSink{db: db}

	_, err := sink.Load(ctx, r.GameID)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, sink.Migrate(ctx))
	loc, err := sink.Store(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "postgres://replays/archive-game", loc)
	require.Len(t, db.execs, 2)
	insert := db.execs[1]
	assert.Equal(t, r.GameID, insert[1])
	assert.Equal(t, r.Seed, insert[2])
	assert.Equal(t, len(r.ActionLog), insert[6])

	loaded, err := sink.Load(ctx, r.GameID)
	require.NoError(t, err)
	assert.Equal(t, r.Checksum, loaded.Checksum)
	assert.Equal(t, r.Summary, loaded.Summary)

	_, err = sink.List(ctx)
	assert.Error(t, err)
}

func TestGCSObjectName(t *testing.T) {
	assert.Equal(t, "replays/g1.replay.json.gz", (&GCSSink{prefix: "replays"}).objectName("g1"))
	assert.Equal(t, "g1.replay.json.gz", (&GCSSink{}).objectName("g1"))
}

func TestGameIDFromFile(t *testing.T) {
	id, ok := gameIDFromFile("abc.replay.json.gz")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
	id, ok = gameIDFromFile("abc.replay.json")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
	_, ok = gameIDFromFile("notes.txt")
	assert.False(t, ok)
}

func TestOpenDirectoryOnly(t *testing.T) {
	dir := t.TempDir()
	o, err := Open(context.Background(), config.ArchiveConfig{Dir: dir, Gzip: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer o.Close()
	assert.Equal(t, 1, o.Len())
	require.NotNil(t, o.Source)

	r := sampleReplay(t)
	_, err = o.Store(context.Background(), r)
	require.NoError(t, err)
	got, err := o.Source.Load(context.Background(), r.GameID)
	require.NoError(t, err)
	assert.Equal(t, r.Checksum, got.Checksum)
}

func TestOpenNothingConfigured(t *testing.T) {
	o, err := Open(context.Background(), config.ArchiveConfig{}, nil)
	require.NoError(t, err)
	assert.Zero(t, o.Len())
	assert.Nil(t, o.Source)
	assert.NoError(t, o.Close())
}
