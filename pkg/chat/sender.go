package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"ChamCong/config"
	pkgerrors "ChamCong/pkg/errors"
)

// Sender 把文本投递到聊天频道。
type Sender interface {
	Send(ctx context.Context, text string) error
}

// GatewaySender 通过聊天网关把消息发到 broadcast chat。
type GatewaySender struct {
	cli    *client.Client
	log    *zap.Logger
	url    string
	token  string
	chatID string
}

func NewGatewaySender(l *zap.Logger) (*GatewaySender, error) {
	cli, err := client.NewClient(
		client.WithDialTimeout(5*time.Second),
		client.WithClientReadTimeout(15*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat gateway client: %w", err)
	}

	cfg := config.Cfg
	return &GatewaySender{
		cli:    cli,
		log:    l,
		url:    cfg.ChatGatewayURL,
		token:  cfg.ChatGatewayToken,
		chatID: cfg.ChatBroadcastID,
	}, nil
}

type sendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (s *GatewaySender) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendRequest{ChatID: s.chatID, Text: text})
	if err != nil {
		return pkgerrors.NewRemoteError("chat", "send", err)
	}

	req, res := protocol.AcquireRequest(), protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(res)

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(s.url)
	req.SetBody(body)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	if err := s.cli.Do(ctx, req, res); err != nil {
		return pkgerrors.NewRemoteError("chat", "send", err)
	}

	if res.StatusCode() != consts.StatusOK {
		return pkgerrors.NewRemoteError("chat", "send",
			fmt.Errorf("unexpected status %d", res.StatusCode()))
	}

	s.log.Info("Notice delivered to chat", zap.Int("text_len", len(text)))
	return nil
}
