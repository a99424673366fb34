package model

// Action 命令动作枚举
type Action string

const (
	ActionOnboard  Action = "onboard"
	ActionExclude  Action = "exclude"
	ActionStatus   Action = "status"
	ActionCheck    Action = "check"
	ActionReset    Action = "reset"
	ActionShutdown Action = "shutdown"
	ActionUnknown  Action = "unknown" // 未识别的动作由 router 回复，不算解析失败
)

// RequiresDates reports whether the action cannot run without a date list.
func (a Action) RequiresDates() bool {
	return a == ActionOnboard || a == ActionExclude
}

// CommandRequest 是解析后的用户命令，不落盘。
type CommandRequest struct {
	Action Action
	Dates  []Date
}
