package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ChamCong/internal/model"
)

func newTestStore(t *testing.T) (*Store, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	s, err := NewStore(context.Background(), repo, zap.NewNop())
	require.NoError(t, err)
	return s, repo
}

func d(day int, month time.Month, year int) model.Date {
	return model.Date{Year: year, Month: month, Day: day}
}

func TestAddOnboardIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	dates := []model.Date{d(12, time.January, 2026), d(13, time.January, 2026)}
	require.NoError(t, s.AddOnboard(ctx, "Anh Tu", dates))
	require.NoError(t, s.AddOnboard(ctx, "Anh Tu", dates))

	st, err := s.Status(ctx, "Anh Tu")
	require.NoError(t, err)
	assert.Equal(t, dates, st.OnBoard)
	assert.Empty(t, st.RemoveDays)
}

func TestAddExcludedIdempotentAndSorted(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddExcluded(ctx, "Chi Lan", []model.Date{d(20, time.January, 2026)}))
	require.NoError(t, s.AddExcluded(ctx, "Chi Lan", []model.Date{d(5, time.January, 2026), d(20, time.January, 2026)}))

	st, err := s.Status(ctx, "Chi Lan")
	require.NoError(t, err)
	assert.Equal(t, []model.Date{d(5, time.January, 2026), d(20, time.January, 2026)}, st.RemoveDays)
}

func TestResetClearsBothSets(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddOnboard(ctx, "Anh Tu", []model.Date{d(12, time.January, 2026)}))
	require.NoError(t, s.AddExcluded(ctx, "Anh Tu", []model.Date{d(13, time.January, 2026)}))
	require.NoError(t, s.Reset(ctx, "Anh Tu"))

	st, err := s.Status(ctx, "Anh Tu")
	require.NoError(t, err)
	assert.Empty(t, st.OnBoard)
	assert.Empty(t, st.RemoveDays)
}

func TestPurgeDropsOnlyDatesBeforeFirstOfMonth(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddOnboard(ctx, "Anh Tu", []model.Date{
		d(28, time.December, 2025),
		d(1, time.January, 2026),
		d(15, time.January, 2026),
	}))
	require.NoError(t, s.AddExcluded(ctx, "Anh Tu", []model.Date{
		d(31, time.December, 2025),
		d(2, time.February, 2026),
	}))

	require.NoError(t, s.Purge(ctx, d(1, time.January, 2026)))

	st, err := s.Status(ctx, "Anh Tu")
	require.NoError(t, err)
	assert.Equal(t, []model.Date{d(1, time.January, 2026), d(15, time.January, 2026)}, st.OnBoard)
	assert.Equal(t, []model.Date{d(2, time.February, 2026)}, st.RemoveDays)

	// 第二次 purge 不改变结果
	require.NoError(t, s.Purge(ctx, d(1, time.January, 2026)))
	st2, err := s.Status(ctx, "Anh Tu")
	require.NoError(t, err)
	assert.Equal(t, st, st2)
}

func TestStatusCreatesUserRecord(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	before := repo.Saves
	st, err := s.Status(ctx, "Nguoi Moi")
	require.NoError(t, err)
	assert.Empty(t, st.OnBoard)
	assert.Empty(t, st.RemoveDays)
	assert.Equal(t, before+1, repo.Saves, "first contact persists the new record")

	// 已存在时不再落盘
	_, err = s.Status(ctx, "Nguoi Moi")
	require.NoError(t, err)
	assert.Equal(t, before+1, repo.Saves)
}

func TestWriteThroughEveryMutation(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddOnboard(ctx, "u", []model.Date{d(2, time.January, 2026)}))
	require.NoError(t, s.AddExcluded(ctx, "u", []model.Date{d(3, time.January, 2026)}))
	require.NoError(t, s.Reset(ctx, "u"))
	require.NoError(t, s.Purge(ctx, d(5, time.January, 2026)))

	assert.Equal(t, 4, repo.Saves)
}

func TestStateSurvivesReload(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	s1, err := NewStore(ctx, repo, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s1.AddOnboard(ctx, "Anh Tu", []model.Date{d(12, time.January, 2026)}))
	require.NoError(t, s1.SetFormLink(ctx, false))

	s2, err := NewStore(ctx, repo, zap.NewNop())
	require.NoError(t, err)
	st, err := s2.Status(ctx, "Anh Tu")
	require.NoError(t, err)
	assert.Equal(t, []model.Date{d(12, time.January, 2026)}, st.OnBoard)
	assert.False(t, s2.LinkHealth().FormLink)
	assert.True(t, s2.LinkHealth().TimekeepLink)
}

func TestIsOnboardAndExcludedDates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddOnboard(ctx, "u", []model.Date{d(12, time.January, 2026)}))
	assert.True(t, s.IsOnboard("u", d(12, time.January, 2026)))
	assert.False(t, s.IsOnboard("u", d(13, time.January, 2026)))
	assert.False(t, s.IsOnboard("khong-ton-tai", d(12, time.January, 2026)))

	require.NoError(t, s.AddExcluded(ctx, "u", []model.Date{d(9, time.January, 2026)}))
	assert.Equal(t, []model.Date{d(9, time.January, 2026)}, s.ExcludedDates("u"))
	assert.Nil(t, s.ExcludedDates("khong-ton-tai"))
}
