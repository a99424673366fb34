package handler

// 聊天网关 webhook：入站消息 -> 命令路由 -> 同步回复

import (
	"context"
	"crypto/subtle"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/service"
	"ChamCong/pkg/response"
)

type ChatHandler struct {
	logger  *zap.Logger
	service *service.MessageService
}

func NewChatHandler(svc *service.MessageService, l *zap.Logger) *ChatHandler {
	return &ChatHandler{logger: l, service: svc}
}

type chatMessageRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type chatMessageResponse struct {
	Reply string `json:"reply"`
}

// HandleMessage POST /v1/chat/messages
func (h *ChatHandler) HandleMessage(ctx context.Context, c *app.RequestContext) {
	if !h.authorized(c) {
		c.AbortWithStatus(consts.StatusUnauthorized)
		return
	}

	var req chatMessageRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if req.Sender == "" || req.Text == "" {
		c.AbortWithStatus(consts.StatusBadRequest)
		return
	}

	h.logger.Info("Inbound chat message",
		zap.String("sender", req.Sender),
		zap.Int("text_len", len(req.Text)),
	)

	reply := h.service.Handle(ctx, req.Sender, req.Text)
	response.Success(ctx, c, chatMessageResponse{Reply: reply})
}

// authorized 校验网关带来的共享密钥，未配置则放行（本地调试）
func (h *ChatHandler) authorized(c *app.RequestContext) bool {
	secret := config.Cfg.ChatWebhookSecret
	if secret == "" {
		return true
	}

	got := c.GetHeader("X-Webhook-Secret")
	return subtle.ConstantTimeCompare(got, []byte(secret)) == 1
}
