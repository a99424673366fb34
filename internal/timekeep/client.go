package timekeep

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/model"
	pkgerrors "ChamCong/pkg/errors"
)

// Client 访问远程考勤系统，密码即工号，token 按 JWT exp 缓存。

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36 Edg/136.0.0.0"

type cachedToken struct {
	token     string
	expiresAt time.Time
}

type Client struct {
	cli *client.Client
	log *zap.Logger

	authURL   string
	dataURL   string
	origin    string
	tenantID  string
	probeUser string

	mu     sync.Mutex
	tokens map[string]cachedToken
}

func NewClient(l *zap.Logger) (*Client, error) {
	cli, err := client.NewClient(
		client.WithDialTimeout(5*time.Second),
		client.WithClientReadTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create timekeep http client: %w", err)
	}

	cfg := config.Cfg
	return &Client{
		cli:       cli,
		log:       l,
		authURL:   cfg.TimekeepAuthURL,
		dataURL:   cfg.TimekeepDataURL,
		origin:    cfg.TimekeepOrigin,
		tenantID:  cfg.TimekeepTenantID,
		probeUser: cfg.TimekeepProbeUser,
		tokens:    make(map[string]cachedToken),
	}, nil
}

type authRequest struct {
	UserNameOrEmailAddress string  `json:"userNameOrEmailAddress"`
	Password               string  `json:"password"`
	LoginByCode            bool    `json:"loginByCode"`
	RememberClient         bool    `json:"rememberClient"`
	SingleSignIn           bool    `json:"singleSignIn"`
	ReturnURL              *string `json:"returnUrl"`
}

type authResponse struct {
	Result struct {
		AccessToken string `json:"accessToken"`
	} `json:"result"`
}

type monthRequest struct {
	ViewYear  int `json:"viewYear"`
	ViewMonth int `json:"viewMonth"`
}

type monthResponse struct {
	Result []model.AttendanceDay `json:"result"`
}

func (c *Client) token(ctx context.Context, employeeID string) (string, error) {
	c.mu.Lock()
	cached, ok := c.tokens[employeeID]
	c.mu.Unlock()

	// 留 60s 余量，避免拿到临期 token
	if ok && time.Until(cached.expiresAt) > time.Minute {
		return cached.token, nil
	}

	token, err := c.authenticate(ctx, employeeID)
	if err != nil {
		return "", err
	}

	expiresAt := tokenExpiry(token)
	c.mu.Lock()
	c.tokens[employeeID] = cachedToken{token: token, expiresAt: expiresAt}
	c.mu.Unlock()

	return token, nil
}

// tokenExpiry 不验签只读 exp，解析失败时按短 TTL 处理。
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Now().Add(5 * time.Minute)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(5 * time.Minute)
	}
	return exp.Time
}

func (c *Client) authenticate(ctx context.Context, employeeID string) (string, error) {
	body, err := json.Marshal(authRequest{
		UserNameOrEmailAddress: employeeID,
		Password:               employeeID,
		LoginByCode:            true,
	})
	if err != nil {
		return "", pkgerrors.NewRemoteError("timekeep", "auth", err)
	}

	req, res := protocol.AcquireRequest(), protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(res)

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.authURL)
	req.SetBody(body)
	req.Header.Set("Content-Type", "application/json-patch+json")
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("abp.tenantid", c.tenantID)
	req.Header.Set("Origin", c.origin)
	req.Header.Set("Referer", c.origin+"/")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	if err := c.cli.Do(ctx, req, res); err != nil {
		return "", pkgerrors.NewRemoteError("timekeep", "auth", err)
	}

	if res.StatusCode() != consts.StatusOK {
		return "", pkgerrors.NewRemoteError("timekeep", "auth",
			fmt.Errorf("unexpected status %d", res.StatusCode()))
	}

	var parsed authResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return "", pkgerrors.NewRemoteError("timekeep", "auth", err)
	}
	if parsed.Result.AccessToken == "" {
		return "", pkgerrors.NewRemoteError("timekeep", "auth",
			fmt.Errorf("empty access token in response"))
	}

	return parsed.Result.AccessToken, nil
}

// FetchMonth 拉取某员工某月的打卡记录。
func (c *Client) FetchMonth(ctx context.Context, employeeID string, year int, month time.Month) ([]model.AttendanceDay, error) {
	token, err := c.token(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(monthRequest{ViewYear: year, ViewMonth: int(month)})
	if err != nil {
		return nil, pkgerrors.NewRemoteError("timekeep", "fetch_month", err)
	}

	req, res := protocol.AcquireRequest(), protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(res)

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.dataURL)
	req.SetBody(body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	if err := c.cli.Do(ctx, req, res); err != nil {
		return nil, pkgerrors.NewRemoteError("timekeep", "fetch_month", err)
	}

	if res.StatusCode() != consts.StatusOK {
		return nil, pkgerrors.NewRemoteError("timekeep", "fetch_month",
			fmt.Errorf("unexpected status %d", res.StatusCode()))
	}

	var parsed monthResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return nil, pkgerrors.NewRemoteError("timekeep", "fetch_month", err)
	}

	return parsed.Result, nil
}

// Probe 用探测帐号拉一次当月数据，验证远程结构是否仍可用。
func (c *Client) Probe(ctx context.Context, now time.Time) error {
	// 探测不复用缓存 token，每次走完整链路
	c.mu.Lock()
	delete(c.tokens, c.probeUser)
	c.mu.Unlock()

	_, err := c.FetchMonth(ctx, c.probeUser, now.Year(), now.Month())
	if err != nil {
		c.log.Error("Timekeep link probe failed", zap.Error(err))
	}
	return err
}
