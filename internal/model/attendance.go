package model

// AttendanceDay 是 timekeep API 返回的一天考勤记录。
// checkInTime/checkOutTime 为 null 表示当天缺对应一次打卡。
type AttendanceDay struct {
	DayInMonth   int     `json:"dayInMonth"`
	CheckInTime  *string `json:"checkInTime"`
	CheckOutTime *string `json:"checkOutTime"`
}

// Missing-label 常量，digest 里拼进 "Thiếu <label>"。
const (
	MissingCheckIn  = "check in"
	MissingCheckOut = "check out"
	MissingBoth     = MissingCheckIn + " & " + MissingCheckOut
)

// DayMissing 是报告里的一行：某天缺了什么。
type DayMissing struct {
	Date    Date
	Missing string
}

// SubmissionOutcome 是单个用户自动提交任务的结果值。
// 任务边界把所有错误折算进 Err，绝不向上抛。
type SubmissionOutcome struct {
	User string
	Err  string
}

func (o SubmissionOutcome) Failed() bool {
	return o.Err != ""
}
