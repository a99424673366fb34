package timekeep

import (
	"context"
	"sort"
	"time"

	"ChamCong/internal/model"
	"ChamCong/utils"
)

// MonthSource 抽出月度数据来源，测试时注入假数据。
type MonthSource interface {
	FetchMonth(ctx context.Context, employeeID string, year int, month time.Month) ([]model.AttendanceDay, error)
}

// Reader 把原始月度打卡记录折算成缺卡报告。
type Reader struct {
	source MonthSource
}

func NewReader(source MonthSource) *Reader {
	return &Reader{source: source}
}

// MonthlyMissing 返回某员工本月截至 now 的缺卡列表，按日期升序。
// 规则：
//   - 只看 now 当天及之前的日子
//   - 周六/周日不计
//   - excluded 里的日子不计
//   - check in 缺 = checkInTime 为 null
//   - check out 缺 = checkOutTime 为 null，且该日已过；当天只在午后才算
func (r *Reader) MonthlyMissing(ctx context.Context, employeeID string, now time.Time, excluded []model.Date) ([]model.DayMissing, error) {
	days, err := r.source.FetchMonth(ctx, employeeID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}

	excludedSet := make(map[model.Date]struct{}, len(excluded))
	for _, d := range excluded {
		excludedSet[d] = struct{}{}
	}

	today := now.Day()
	morning := utils.IsMorning(now)

	var missing []model.DayMissing
	for _, day := range days {
		if day.DayInMonth < 1 || day.DayInMonth > today {
			continue
		}

		date := model.Date{Year: now.Year(), Month: now.Month(), Day: day.DayInMonth}
		if utils.IsWeekend(date.Time(now.Location())) {
			continue
		}
		if _, ok := excludedSet[date]; ok {
			continue
		}

		var parts []string
		if day.CheckInTime == nil {
			parts = append(parts, model.MissingCheckIn)
		}
		if day.CheckOutTime == nil {
			if day.DayInMonth < today || (day.DayInMonth == today && !morning) {
				parts = append(parts, model.MissingCheckOut)
			}
		}

		if len(parts) == 0 {
			continue
		}

		label := parts[0]
		if len(parts) == 2 {
			label = model.MissingBoth
		}
		missing = append(missing, model.DayMissing{Date: date, Missing: label})
	}

	sort.Slice(missing, func(i, j int) bool {
		return missing[i].Date.Before(missing[j].Date)
	})

	return missing, nil
}
