package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/model"
	"ChamCong/internal/state"
)

type stubReader struct {
	missing []model.DayMissing
	err     error

	lastEmployee string
	lastExcluded []model.Date
}

func (r *stubReader) MonthlyMissing(ctx context.Context, employeeID string, now time.Time, excluded []model.Date) ([]model.DayMissing, error) {
	r.lastEmployee = employeeID
	r.lastExcluded = excluded
	if r.err != nil {
		return nil, r.err
	}
	return r.missing, nil
}

func serviceRoster() config.Roster {
	return config.Roster{
		"tuanla": {EmployeeID: "NV150", DisplayName: "Tuan", Gender: "Anh"},
		"chipn":  {EmployeeID: "NV151", DisplayName: "Chi", Gender: "Chị"},
	}
}

func newTestService(t *testing.T, reader AttendanceReader, shutdown func()) (*MessageService, *state.Store) {
	t.Helper()

	store, err := state.NewStore(context.Background(), state.NewMemoryRepository(), zap.NewNop())
	require.NoError(t, err)

	if reader == nil {
		reader = &stubReader{}
	}
	if shutdown == nil {
		shutdown = func() {}
	}

	svc := NewMessageService(store, serviceRoster(), reader, shutdown, zap.NewNop())
	// thứ hai 05/01/2026, buổi sáng
	svc.now = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestHandleUnknownSender(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Handle(context.Background(), "stranger", "s")
	assert.Equal(t, replyUnknownUser, reply)
}

func TestHandleParseFailure(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Handle(context.Background(), "tuanla", "o 12, 13")
	assert.Equal(t, replyParseFailed, reply)
}

func TestHandleUnknownAction(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Handle(context.Background(), "tuanla", "x")
	assert.Equal(t, replyDidNotUnderstand, reply)
}

func TestHandleOnboardWithoutDates(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Handle(context.Background(), "tuanla", "o")
	assert.Equal(t, replyDidNotUnderstand, reply)
}

func TestHandleOnboardAddsDates(t *testing.T) {
	svc, store := newTestService(t, nil, nil)

	reply := svc.Handle(context.Background(), "tuanla", "o 12,1/2/2026")
	assert.Equal(t, replyOnboardAdded, reply)

	st, err := store.Status(context.Background(), "tuanla")
	require.NoError(t, err)
	assert.Equal(t, []model.Date{
		{Year: 2026, Month: 1, Day: 12},
		{Year: 2026, Month: 2, Day: 1},
	}, st.OnBoard)
}

func TestHandleExcludeAddsDates(t *testing.T) {
	svc, store := newTestService(t, nil, nil)

	reply := svc.Handle(context.Background(), "tuanla", "e 20")
	assert.Equal(t, replyExcludeAdded, reply)

	st, err := store.Status(context.Background(), "tuanla")
	require.NoError(t, err)
	assert.Equal(t, []model.Date{{Year: 2026, Month: 1, Day: 20}}, st.RemoveDays)
}

func TestHandleStatusEmpty(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	reply := svc.Handle(context.Background(), "tuanla", "s")
	assert.Equal(t,
		"Anh tuanla chưa có cấu hình onboard và ngày xóa thông báo nào. Tháng này tôi sẽ tự động check in/out onsite mọi ngày cho anh.",
		reply,
	)
}

func TestHandleStatusBothConfigured(t *testing.T) {
	svc, store := newTestService(t, nil, nil)

	require.NoError(t, store.AddOnboard(context.Background(), "tuanla",
		[]model.Date{{Year: 2026, Month: 1, Day: 12}}))
	require.NoError(t, store.AddExcluded(context.Background(), "tuanla",
		[]model.Date{{Year: 2026, Month: 1, Day: 20}}))

	reply := svc.Handle(context.Background(), "tuanla", "s")
	expected := "Các ngày cấu hình onboard\n" +
		"- 12/01/2026\n" +
		"Chủ động check in/out các ngày trên\n\n" +
		"Các ngày cấu hình xóa thông báo\n" +
		"- 20/01/2026\n" +
		"Chủ động check timekeep các ngày trên"
	assert.Equal(t, expected, reply)
}

func TestHandleCheckComplete(t *testing.T) {
	reader := &stubReader{}
	svc, store := newTestService(t, reader, nil)

	require.NoError(t, store.AddExcluded(context.Background(), "tuanla",
		[]model.Date{{Year: 2026, Month: 1, Day: 2}}))

	reply := svc.Handle(context.Background(), "tuanla", "c")
	assert.Equal(t, replyCheckComplete, reply)
	assert.Equal(t, "NV150", reader.lastEmployee)
	assert.Equal(t, []model.Date{{Year: 2026, Month: 1, Day: 2}}, reader.lastExcluded)
}

func TestHandleCheckWithMissingDays(t *testing.T) {
	reader := &stubReader{missing: []model.DayMissing{
		{Date: model.Date{Year: 2026, Month: 1, Day: 2}, Missing: model.MissingCheckOut},
	}}
	svc, _ := newTestService(t, reader, nil)

	reply := svc.Handle(context.Background(), "tuanla", "c")
	expected := "Em còn thiếu chấm công các ngày sau trong tháng này:\n" +
		"   - Ngày 2/1/2026: Thiếu check out\n" +
		"Chú ý chấm công đầy đủ nhé!"
	assert.Equal(t, expected, reply)
}

func TestHandleCheckReaderError(t *testing.T) {
	reader := &stubReader{err: errors.New("timekeep down")}
	svc, _ := newTestService(t, reader, nil)

	reply := svc.Handle(context.Background(), "tuanla", "c")
	assert.Equal(t, "Lỗi khi kiểm tra tình trạng check in/out của tuanla trong tháng này.", reply)
}

func TestHandleResetThenStatusEmpty(t *testing.T) {
	svc, store := newTestService(t, nil, nil)

	require.NoError(t, store.AddOnboard(context.Background(), "tuanla",
		[]model.Date{{Year: 2026, Month: 1, Day: 12}}))
	require.NoError(t, store.AddExcluded(context.Background(), "tuanla",
		[]model.Date{{Year: 2026, Month: 1, Day: 20}}))

	reply := svc.Handle(context.Background(), "tuanla", "r")
	assert.Equal(t, replyResetDone, reply)

	st, err := store.Status(context.Background(), "tuanla")
	require.NoError(t, err)
	assert.Empty(t, st.OnBoard)
	assert.Empty(t, st.RemoveDays)
}

func TestHandleShutdownInvokesHook(t *testing.T) {
	called := false
	svc, _ := newTestService(t, nil, func() { called = true })

	reply := svc.Handle(context.Background(), "tuanla", "shutdown")
	assert.Equal(t, replyShutdown, reply)
	assert.True(t, called)
}
