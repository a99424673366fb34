package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/model"
	"ChamCong/internal/state"
)

type captureNotifier struct {
	mu      sync.Mutex
	notices []model.NoticeMessage
}

func (n *captureNotifier) Notify(kind, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, model.NoticeMessage{Kind: kind, Text: text})
	return nil
}

func (n *captureNotifier) last(t *testing.T) model.NoticeMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.notices)
	return n.notices[len(n.notices)-1]
}

type fakeFormProber struct{ err error }

func (f *fakeFormProber) Probe(ctx context.Context) error { return f.err }

type fakeTimekeepProber struct{ err error }

func (f *fakeTimekeepProber) Probe(ctx context.Context, now time.Time) error { return f.err }

type fakeReader struct {
	missing map[string][]model.DayMissing
	errs    map[string]error
}

func (f *fakeReader) MonthlyMissing(ctx context.Context, employeeID string, now time.Time, excluded []model.Date) ([]model.DayMissing, error) {
	if err, ok := f.errs[employeeID]; ok {
		return nil, err
	}
	return f.missing[employeeID], nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	users    []string
	failFor  map[string]string
	maxInUse int
	inUse    int
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, user string, profile config.Profile) model.SubmissionOutcome {
	f.mu.Lock()
	f.inUse++
	if f.inUse > f.maxInUse {
		f.maxInUse = f.inUse
	}
	f.users = append(f.users, user)
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inUse--
	reason, failed := f.failFor[user]
	f.mu.Unlock()

	if failed {
		return model.SubmissionOutcome{User: user, Err: reason}
	}
	return model.SubmissionOutcome{User: user}
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func testRoster() config.Roster {
	return config.Roster{
		"userA": {EmployeeID: "NV001", DisplayName: "A"},
		"userB": {EmployeeID: "NV002", DisplayName: "B"},
		"userC": {EmployeeID: "NV003", DisplayName: "C"},
	}
}

func newTestScheduler(t *testing.T, deps Deps) (*ReportScheduler, *state.Store) {
	t.Helper()

	store, err := state.NewStore(context.Background(), state.NewMemoryRepository(), zap.NewNop())
	require.NoError(t, err)

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Store == nil {
		deps.Store = store
	}
	if deps.Roster == nil {
		deps.Roster = testRoster()
	}
	if deps.FormProber == nil {
		deps.FormProber = &fakeFormProber{}
	}
	if deps.TimekeepProber == nil {
		deps.TimekeepProber = &fakeTimekeepProber{}
	}
	if deps.Reader == nil {
		deps.Reader = &fakeReader{}
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = &fakeDispatcher{}
	}

	return NewReportScheduler(deps), deps.Store
}

func TestCheckLinkStatusWritesFlagsAndNotice(t *testing.T) {
	notifier := &captureNotifier{}
	sched, store := newTestScheduler(t, Deps{
		FormProber:     &fakeFormProber{err: errors.New("label missing")},
		TimekeepProber: &fakeTimekeepProber{},
		Notifier:       notifier,
	})

	err := sched.CheckLinkStatus(context.Background(), time.Date(2026, 1, 5, 7, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	health := store.LinkHealth()
	assert.False(t, health.FormLink)
	assert.True(t, health.TimekeepLink)

	notice := notifier.last(t)
	assert.Equal(t, model.NoticeKindLinkStatus, notice.Kind)
	assert.Equal(t, "❌ Cấu trúc Google Form đã bị thay đổi\n✅ Cấu trúc Time Keep không đổi", notice.Text)
}

func TestAutoCheckInOutFormLinkDownDispatchesNothing(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher := &fakeDispatcher{}
	sched, store := newTestScheduler(t, Deps{
		Dispatcher: dispatcher,
		Notifier:   notifier,
	})

	require.NoError(t, store.SetFormLink(context.Background(), false))

	err := sched.AutoCheckInOut(context.Background(), time.Date(2026, 1, 5, 7, 50, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Zero(t, dispatcher.callCount())
	notice := notifier.last(t)
	assert.Equal(t, model.NoticeKindAlert, notice.Kind)
	assert.Equal(t, noticeFormLinkDown, notice.Text)
}

func TestAutoCheckInOutSkipsOnboardUsers(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher := &fakeDispatcher{}
	sched, store := newTestScheduler(t, Deps{
		Dispatcher: dispatcher,
		Notifier:   notifier,
	})

	today := model.Date{Year: 2026, Month: 1, Day: 5}
	require.NoError(t, store.AddOnboard(context.Background(), "userB", []model.Date{today}))

	err := sched.AutoCheckInOut(context.Background(), time.Date(2026, 1, 5, 7, 50, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, dispatcher.callCount())
	assert.NotContains(t, dispatcher.users, "userB")

	notice := notifier.last(t)
	assert.Equal(t, model.NoticeKindSubmitDigest, notice.Kind)
	assert.Contains(t, notice.Text, "✅ userA")
	assert.Contains(t, notice.Text, "✅ userC")
	assert.NotContains(t, notice.Text, "userB")
}

func TestAutoCheckInOutDigestReportsFailures(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher := &fakeDispatcher{failFor: map[string]string{"userB": "form submit failed"}}
	sched, _ := newTestScheduler(t, Deps{
		Dispatcher: dispatcher,
		Notifier:   notifier,
	})

	err := sched.AutoCheckInOut(context.Background(), time.Date(2026, 1, 5, 7, 50, 0, 0, time.UTC))
	require.NoError(t, err)

	notice := notifier.last(t)
	assert.Contains(t, notice.Text, "✅ userA")
	assert.Contains(t, notice.Text, "❌ userB (Lỗi: form submit failed)")
	assert.Contains(t, notice.Text, "✅ userC")
}

func TestAutoCheckInOutHonorsWorkerCap(t *testing.T) {
	roster := make(config.Roster)
	for _, user := range []string{"u01", "u02", "u03", "u04", "u05", "u06", "u07", "u08"} {
		roster[user] = config.Profile{EmployeeID: user}
	}

	dispatcher := &fakeDispatcher{}
	sched, _ := newTestScheduler(t, Deps{
		Roster:     roster,
		Dispatcher: dispatcher,
		Notifier:   &captureNotifier{},
		WorkerCap:  2,
	})

	err := sched.AutoCheckInOut(context.Background(), time.Date(2026, 1, 5, 7, 50, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 8, dispatcher.callCount())
	assert.LessOrEqual(t, dispatcher.maxInUse, 2)
}

func TestCheckAllInOutTimekeepLinkDown(t *testing.T) {
	notifier := &captureNotifier{}
	sched, store := newTestScheduler(t, Deps{Notifier: notifier})

	require.NoError(t, store.SetTimekeepLink(context.Background(), false))

	err := sched.CheckAllInOut(context.Background(), time.Date(2026, 1, 7, 7, 56, 0, 0, time.UTC))
	require.NoError(t, err)

	notice := notifier.last(t)
	assert.Equal(t, model.NoticeKindAlert, notice.Kind)
	assert.Equal(t, noticeTimekeepLinkDown, notice.Text)
}

func TestCheckAllInOutDigestFormat(t *testing.T) {
	notifier := &captureNotifier{}
	reader := &fakeReader{
		missing: map[string][]model.DayMissing{
			"NV002": {
				{Date: model.Date{Year: 2026, Month: 1, Day: 5}, Missing: model.MissingCheckOut},
			},
		},
	}
	sched, _ := newTestScheduler(t, Deps{
		Reader:   reader,
		Notifier: notifier,
	})

	err := sched.CheckAllInOut(context.Background(), time.Date(2026, 1, 7, 7, 56, 0, 0, time.UTC))
	require.NoError(t, err)

	notice := notifier.last(t)
	assert.Equal(t, model.NoticeKindVerifyDigest, notice.Kind)

	expected := "Tất cả các em tháng này đã chấm công đầy đủ.\n" +
		"✅ userA\n" +
		"✅ userC\n" +
		"Trừ các em sau trong tháng này còn chưa chấm công các ngày:\n" +
		"❌ userB:\n" +
		"   - Ngày 5/1/2026: Thiếu check out\n" +
		"\nGiải trình ngay cho tôi. Các em chú ý chấm công đầy đủ nhé!"
	assert.Equal(t, expected, notice.Text)
}

func TestCheckAllInOutCapturesPerUserFailures(t *testing.T) {
	notifier := &captureNotifier{}
	reader := &fakeReader{
		errs: map[string]error{"NV001": errors.New("timekeep auth: unexpected status 500")},
	}
	sched, _ := newTestScheduler(t, Deps{
		Reader:   reader,
		Notifier: notifier,
	})

	err := sched.CheckAllInOut(context.Background(), time.Date(2026, 1, 7, 7, 56, 0, 0, time.UTC))
	require.NoError(t, err)

	notice := notifier.last(t)
	assert.Contains(t, notice.Text, "✅ userB")
	assert.Contains(t, notice.Text, "✅ userC")
	assert.NotContains(t, notice.Text, "✅ userA\n")
	assert.Contains(t, notice.Text, "⚠️ userA (Lỗi: timekeep auth: unexpected status 500)")
}

func TestClearMonthlyStatesOnlyOnFirstOfMonth(t *testing.T) {
	sched, store := newTestScheduler(t, Deps{Notifier: &captureNotifier{}})

	old := model.Date{Year: 2025, Month: 12, Day: 31}
	future := model.Date{Year: 2026, Month: 1, Day: 15}
	require.NoError(t, store.AddOnboard(context.Background(), "userA", []model.Date{old, future}))

	// 不是 1 号：不清
	require.NoError(t, sched.ClearMonthlyStates(context.Background(), time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)))
	st, err := store.Status(context.Background(), "userA")
	require.NoError(t, err)
	assert.Len(t, st.OnBoard, 2)

	// 1 号：清掉上个月的
	require.NoError(t, sched.ClearMonthlyStates(context.Background(), time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)))
	st, err = store.Status(context.Background(), "userA")
	require.NoError(t, err)
	require.Len(t, st.OnBoard, 1)
	assert.Equal(t, future, st.OnBoard[0])
}
