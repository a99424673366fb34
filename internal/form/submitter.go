package form

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

// Pages 是按页组织的表单载荷：页号 -> {字段标签: 值}。
type Pages map[int]map[string]string

// Submitter 抽出表单提交通道，production 走 HTTP gateway，测试注入 mock。
type Submitter interface {
	Submit(ctx context.Context, pages Pages) error
	Probe(ctx context.Context) error
}

// GatewaySubmitter 把载荷交给表单网关服务，由网关负责真正的浏览器操作。
type GatewaySubmitter struct {
	cli *client.Client
	log *zap.Logger
	url string
}

func NewGatewaySubmitter(l *zap.Logger) (*GatewaySubmitter, error) {
	cli, err := client.NewClient(
		client.WithDialTimeout(5*time.Second),
		client.WithClientReadTimeout(2*time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create form gateway client: %w", err)
	}

	return &GatewaySubmitter{
		cli: cli,
		log: l,
		url: config.Cfg.FormGatewayURL,
	}, nil
}

type submitRequest struct {
	Pages Pages `json:"pages"`
	// DryRun 只校验表单结构，不真正提交
	DryRun bool `json:"dry_run,omitempty"`
}

func (s *GatewaySubmitter) Submit(ctx context.Context, pages Pages) error {
	return s.post(ctx, submitRequest{Pages: pages})
}

// Probe 用假数据走一遍表单结构校验，标签变了网关会报非 200。
func (s *GatewaySubmitter) Probe(ctx context.Context) error {
	err := s.post(ctx, submitRequest{Pages: probePages(), DryRun: true})
	if err != nil {
		s.log.Error("Form link probe failed", zap.Error(err))
	}
	return err
}

func (s *GatewaySubmitter) post(ctx context.Context, payload submitRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.NewRemoteError("form", "submit", err)
	}

	req, res := protocol.AcquireRequest(), protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(res)

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(s.url)
	req.SetBody(body)
	req.Header.Set("Content-Type", "application/json")

	if err := s.cli.Do(ctx, req, res); err != nil {
		return pkgerrors.NewRemoteError("form", "submit", err)
	}

	if res.StatusCode() != consts.StatusOK {
		return pkgerrors.NewRemoteError("form", "submit",
			fmt.Errorf("unexpected status %d", res.StatusCode()))
	}

	return nil
}

// probePages 的值不会被真正提交，只要每个标签仍在表单上即可。
func probePages() Pages {
	return Pages{
		1: {
			"User name":     "NV122",
			"Phòng ban":     "Data & AI (D&A)",
			"User teamlead": "KienVQ - Vũ Quốc Kiên",
		},
		2: {"Bạn muốn ?": "Check in"},
		3: {"Ca làm việc": "Fulltime (Ca hành chính 8 tiếng)"},
		4: {"Loại chấm công - Check in?": "Onsite"},
		5: {"Địa điểm": "số 5, ngõ 82, Duy Tân, Cầu Giấy, Hà Nội (quãng đường 2km)"},
		6: {"1+2=? (Điền số)": "3"},
	}
}
