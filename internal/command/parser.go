package command

// 命令语法（原样保留聊天机器人的紧凑格式）：
//   o 12,13,1/1/2026,t2,t4   onboard các ngày này, bot không check hộ
//   e 12                     loại ngày khỏi báo cáo tháng
//   s                        xem cấu hình hiện tại
//   c                        kiểm tra check in/out trong tháng
//   r                        xóa toàn bộ cấu hình
//   shutdown                 tắt bot

import (
	"strconv"
	"strings"
	"time"

	"ChamCong/internal/model"
	"ChamCong/pkg/errors"
)

// 动作别名：全名或首字母。shutdown 不给单字母，避免手滑。
var actionAliases = map[string]model.Action{
	"o":        model.ActionOnboard,
	"onboard":  model.ActionOnboard,
	"e":        model.ActionExclude,
	"exclude":  model.ActionExclude,
	"s":        model.ActionStatus,
	"status":   model.ActionStatus,
	"c":        model.ActionCheck,
	"check":    model.ActionCheck,
	"r":        model.ActionReset,
	"reset":    model.ActionReset,
	"shutdown": model.ActionShutdown,
}

// Parse 把原始命令文本解析成 CommandRequest。纯函数，不做 I/O。
// now 决定相对日期（t2..t8、纯日号）的锚点。
// 规则：trim 后最多一个内部空格；任何一个日期 token 非法则整条失败。
func Parse(raw string, now time.Time) (model.CommandRequest, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.CommandRequest{}, &errors.ParseError{Input: raw, Reason: "empty input"}
	}

	numSpaces := strings.Count(trimmed, " ")
	if numSpaces > 1 {
		return model.CommandRequest{}, &errors.ParseError{Input: raw, Reason: "more than one space between parts"}
	}

	if numSpaces == 0 {
		return model.CommandRequest{Action: resolveAction(trimmed)}, nil
	}

	code, datesPart, _ := strings.Cut(trimmed, " ")

	dates, err := parseDateList(raw, datesPart, now)
	if err != nil {
		return model.CommandRequest{}, err
	}

	return model.CommandRequest{Action: resolveAction(code), Dates: dates}, nil
}

func resolveAction(code string) model.Action {
	if action, ok := actionAliases[strings.ToLower(code)]; ok {
		return action
	}
	// 未知动作是 routing 层的决定，不是解析错误
	return model.ActionUnknown
}

func parseDateList(raw, datesPart string, now time.Time) ([]model.Date, error) {
	tokens := strings.Split(datesPart, ",")
	dates := make([]model.Date, 0, len(tokens))

	for _, token := range tokens {
		d, err := parseDateToken(raw, token, now)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}

	return dates, nil
}

// parseDateToken 按顺序判别三种写法：
//  1. t<N>  -> thứ N tuần này/tuần sau (N trong [2,8], thứ 2 = t2)
//  2. D/M/Y -> ngày cụ thể
//  3. D     -> ngày D của tháng hiện tại
func parseDateToken(raw, token string, now time.Time) (model.Date, error) {
	switch {
	case strings.HasPrefix(strings.ToLower(token), "t"):
		return parseWeekdayToken(raw, token, now)
	case strings.Contains(token, "/"):
		return parseFullDateToken(raw, token)
	default:
		return parseDayOfMonthToken(raw, token, now)
	}
}

func parseWeekdayToken(raw, token string, now time.Time) (model.Date, error) {
	n, err := strconv.Atoi(token[1:])
	if err != nil || n < 2 || n > 8 {
		return model.Date{}, &errors.ParseError{Input: raw, Reason: "invalid weekday token " + token}
	}

	// t2 -> thứ 2 (Monday) ... t8 -> chủ nhật
	target := n - 2 // 0 = Monday
	today := mondayBased(now.Weekday())

	// 目标 weekday 是今天或已过，则取下周：保证解析结果严格在未来
	diff := target - today
	if diff <= 0 {
		diff += 7
	}

	return model.DateOf(now.AddDate(0, 0, diff)), nil
}

func parseFullDateToken(raw, token string) (model.Date, error) {
	parts := strings.Split(token, "/")
	if len(parts) != 3 {
		return model.Date{}, &errors.ParseError{Input: raw, Reason: "invalid date format " + token}
	}

	day, errD := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	year, errY := strconv.Atoi(parts[2])
	if errD != nil || errM != nil || errY != nil {
		return model.Date{}, &errors.ParseError{Input: raw, Reason: "invalid date format " + token}
	}

	d, err := model.NewDate(year, time.Month(month), day)
	if err != nil {
		return model.Date{}, &errors.ParseError{Input: raw, Reason: "invalid date " + token}
	}
	return d, nil
}

func parseDayOfMonthToken(raw, token string, now time.Time) (model.Date, error) {
	day, err := strconv.Atoi(token)
	if err != nil {
		return model.Date{}, &errors.ParseError{Input: raw, Reason: "invalid day token " + token}
	}

	d, err := model.NewDate(now.Year(), now.Month(), day)
	if err != nil {
		return model.Date{}, &errors.ParseError{Input: raw, Reason: "invalid day " + token}
	}
	return d, nil
}

// mondayBased 把 time.Weekday (Sunday=0) 转成 Monday=0..Sunday=6。
func mondayBased(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
