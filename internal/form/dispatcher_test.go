package form

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ChamCong/config"
)

func testProfile() config.Profile {
	return config.Profile{
		EmployeeID:  "NV001",
		DisplayName: "Anh Tu",
		Department:  "Data & AI (D&A)",
		TeamLead:    "KienVQ - Vũ Quốc Kiên",
		WorkShift:   "Fulltime (Ca hành chính 8 tiếng)",
		SiteAddress: "số 5, ngõ 82, Duy Tân, Cầu Giấy, Hà Nội (quãng đường 2km)",
	}
}

func newTestDispatcher(submitter Submitter, at time.Time) *Dispatcher {
	d := NewDispatcher(submitter, 0, zap.NewNop())
	d.now = func() time.Time { return at }
	return d
}

func TestDispatchMorningSubmitsCheckIn(t *testing.T) {
	mock := NewMockSubmitter()
	d := newTestDispatcher(mock, time.Date(2026, 1, 5, 7, 50, 0, 0, time.UTC))

	outcome := d.Dispatch(context.Background(), "user1", testProfile())
	require.False(t, outcome.Failed())
	require.Len(t, mock.Calls, 1)

	pages := mock.Calls[0]
	assert.Equal(t, "Check in", pages[2]["Bạn muốn ?"])
	assert.Equal(t, "Onsite", pages[4]["Loại chấm công - Check in?"])
	assert.Equal(t, "10", pages[6]["1+9=? (Điền số)"])
	assert.Equal(t, "Anh Tu", pages[1]["User name"])
}

func TestDispatchAfternoonSubmitsCheckOut(t *testing.T) {
	mock := NewMockSubmitter()
	d := newTestDispatcher(mock, time.Date(2026, 1, 5, 17, 1, 0, 0, time.UTC))

	outcome := d.Dispatch(context.Background(), "user1", testProfile())
	require.False(t, outcome.Failed())
	require.Len(t, mock.Calls, 1)

	pages := mock.Calls[0]
	assert.Equal(t, "Check out", pages[2]["Bạn muốn ?"])
	assert.Equal(t, "Onsite", pages[4]["Loại chấm công - Check out?"])
	assert.Equal(t, "5", pages[6]["2+3=? (Điền số)"])
}

func TestDispatchCapturesSubmitError(t *testing.T) {
	mock := NewMockSubmitter()
	mock.FailNext = true
	d := newTestDispatcher(mock, time.Date(2026, 1, 5, 7, 50, 0, 0, time.UTC))

	outcome := d.Dispatch(context.Background(), "user1", testProfile())
	assert.True(t, outcome.Failed())
	assert.Equal(t, "user1", outcome.User)
	assert.Contains(t, outcome.Err, "mock form submit failure")
}

func TestDispatchCancelledContextDuringJitter(t *testing.T) {
	mock := NewMockSubmitter()
	d := NewDispatcher(mock, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := d.Dispatch(ctx, "user1", testProfile())
	assert.True(t, outcome.Failed())
	assert.Zero(t, mock.CallCount())
}

type panicSubmitter struct{}

func (panicSubmitter) Submit(ctx context.Context, pages Pages) error { panic("boom") }
func (panicSubmitter) Probe(ctx context.Context) error               { return nil }

func TestDispatchRecoversPanic(t *testing.T) {
	d := newTestDispatcher(panicSubmitter{}, time.Date(2026, 1, 5, 7, 50, 0, 0, time.UTC))

	outcome := d.Dispatch(context.Background(), "user1", testProfile())
	require.True(t, outcome.Failed())
	assert.Contains(t, outcome.Err, "panic: boom")
}
