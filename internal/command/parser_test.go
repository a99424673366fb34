package command

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChamCong/internal/model"
)

// 2026-01-05 là thứ 2 (Monday).
var monday = time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

func TestParseActionOnly(t *testing.T) {
	cases := map[string]model.Action{
		"s":        model.ActionStatus,
		"status":   model.ActionStatus,
		"c":        model.ActionCheck,
		"CHECK":    model.ActionCheck,
		"r":        model.ActionReset,
		"o":        model.ActionOnboard,
		"e":        model.ActionExclude,
		"shutdown": model.ActionShutdown,
		"  s  ":    model.ActionStatus,
	}

	for raw, want := range cases {
		req, err := Parse(raw, monday)
		require.NoError(t, err, raw)
		assert.Equal(t, want, req.Action, raw)
		assert.Empty(t, req.Dates, raw)
	}
}

func TestParseUnknownActionIsNotParseError(t *testing.T) {
	req, err := Parse("xyz", monday)
	require.NoError(t, err)
	assert.Equal(t, model.ActionUnknown, req.Action)
}

func TestParseTooManySpacesFails(t *testing.T) {
	for _, raw := range []string{"o 12 13", "a b c", "o  12", "status now please"} {
		_, err := Parse(raw, monday)
		assert.Error(t, err, raw)
	}
}

func TestParseEmptyFails(t *testing.T) {
	_, err := Parse("   ", monday)
	assert.Error(t, err)
}

func TestParseWeekdayTokensStrictlyFuture(t *testing.T) {
	// 对每个 t2..t8 和一周内每个 "今天"：结果严格在未来、最多 7 天、weekday 匹配
	for n := 2; n <= 8; n++ {
		for dayOffset := 0; dayOffset < 7; dayOffset++ {
			now := monday.AddDate(0, 0, dayOffset)
			req, err := Parse(fmt.Sprintf("o t%d", n), now)
			require.NoError(t, err)
			require.Len(t, req.Dates, 1)

			got := req.Dates[0].Time(time.UTC)
			diff := int(got.Sub(now.Truncate(24 * time.Hour)).Hours() / 24)

			assert.True(t, model.DateOf(now).Before(req.Dates[0]),
				"t%d from %s resolved to non-future %s", n, now.Format("2006-01-02"), req.Dates[0])
			assert.LessOrEqual(t, diff, 7)

			wantWeekday := time.Weekday((n - 1) % 7) // t2=Monday(1) ... t8=Sunday(0)
			assert.Equal(t, wantWeekday, got.Weekday())
		}
	}
}

func TestParseWeekdayTokenOutOfRange(t *testing.T) {
	for _, raw := range []string{"o t1", "o t9", "o t0", "o tx", "o t"} {
		_, err := Parse(raw, monday)
		assert.Error(t, err, raw)
	}
}

func TestParseMixedDateListScenario(t *testing.T) {
	// "o 12,1/2/2026,t4" gửi vào thứ 2 -> ngày 12 tháng này, 1/2/2026, thứ 4 tuần này
	req, err := Parse("o 12,1/2/2026,t4", monday)
	require.NoError(t, err)

	assert.Equal(t, model.ActionOnboard, req.Action)
	require.Len(t, req.Dates, 3)
	assert.Equal(t, model.Date{Year: 2026, Month: time.January, Day: 12}, req.Dates[0])
	assert.Equal(t, model.Date{Year: 2026, Month: time.February, Day: 1}, req.Dates[1])
	assert.Equal(t, model.Date{Year: 2026, Month: time.January, Day: 7}, req.Dates[2]) // thứ 4
}

func TestParseBadTokenFailsWholeList(t *testing.T) {
	for _, raw := range []string{
		"o 12,45",        // ngày 45 không tồn tại
		"o 12,31/2/2026", // 31/2 không tồn tại
		"o 12,abc",
		"o 1/2",       // thiếu năm
		"o 1/13/2026", // tháng 13
	} {
		_, err := Parse(raw, monday)
		assert.Error(t, err, raw)
	}
}

func TestParseFullDate(t *testing.T) {
	req, err := Parse("e 29/2/2024", monday)
	require.NoError(t, err)
	assert.Equal(t, model.Date{Year: 2024, Month: time.February, Day: 29}, req.Dates[0])

	_, err = Parse("e 29/2/2026", monday) // 2026 không nhuận
	assert.Error(t, err)
}
