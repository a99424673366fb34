package errors

import (
	stderrors "errors"
	"fmt"
)

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

func (d Definition) Error() string {
	return d.Message
}

// 错误分类：解析 / 存储 / 远程 / 致命。
// 每个 job 的顶层边界把下层失败折算成这四类之一再上报。
var (
	ParseFailed    = Definition{Code: "PARSE_FAILED", Message: "Command text could not be parsed"}
	StateFailed    = Definition{Code: "STATE_FAILED", Message: "State document read/write failed"}
	RemoteFailed   = Definition{Code: "REMOTE_FAILED", Message: "Remote system call failed"}
	FatalRequested = Definition{Code: "FATAL_REQUESTED", Message: "Shutdown requested"}
)

// ParseError 是用户可自行纠正的命令格式错误。
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ParseFailed
}

// StateError 包装状态文档的读写失败。
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

func (e *StateError) Is(target error) bool {
	return target == StateFailed
}

// RemoteError 包装对外部系统（timekeep、form gateway）的单次调用失败。
// 只影响当前这一次查询/提交，不得波及兄弟任务。
type RemoteError struct {
	System string
	Op     string
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.System, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool {
	return target == RemoteFailed
}

func NewParseError(input, reason string) *ParseError {
	return &ParseError{Input: input, Reason: reason}
}

func NewStateError(op string, err error) *StateError {
	return &StateError{Op: op, Err: err}
}

func NewRemoteError(system, op string, err error) *RemoteError {
	return &RemoteError{System: system, Op: op, Err: err}
}

// SkipMessageError 表示队列消息应被 ack 并跳过（重复投递等），不算处理失败。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}

func IsSkipMessageError(err error) bool {
	var skip *SkipMessageError
	return stderrors.As(err, &skip)
}
