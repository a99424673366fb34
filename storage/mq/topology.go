package mq

// 通知链路的拓扑常量，scheduler/server 发布，worker 消费。
const (
	NoticeExchange   = "chamcong.notice"
	NoticeQueue      = "chamcong.notice.queue"
	NoticeRoutingKey = "scheduler.notice"
)
