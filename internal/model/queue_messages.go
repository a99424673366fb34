package model

// NoticeMessage 是 scheduler 发往 worker 的出站聊天通知。
// worker 消费后把 Text 原样投递到 broadcast chat。
type NoticeMessage struct {
	MessageID string `json:"message_id"`
	Kind      string `json:"kind"` // link_status, submit_digest, verify_digest, alert
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"` // RFC3339
}

// Notice kinds.
const (
	NoticeKindLinkStatus   = "link_status"
	NoticeKindSubmitDigest = "submit_digest"
	NoticeKindVerifyDigest = "verify_digest"
	NoticeKindAlert        = "alert"
)
