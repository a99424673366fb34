package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/pkg/errors"
	"ChamCong/pkg/response"
)

// RecoverMiddleware 兜住 handler panic，返回统一错误响应
func RecoverMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}) {
	stack := debug.Stack()

	log.Error("[PANIC RECOVERED]",
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.ByteString("stack", formatStack(stack)),
	)

	errDef := errors.Definition{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "Đã có lỗi hệ thống, thử lại sau nhé.",
	}

	if config.Cfg.IsProduction() {
		response.Error(context.Background(), c, errDef)
		return
	}

	response.ErrorWithDetails(context.Background(), c, errDef, map[string]interface{}{
		"panic":     fmt.Sprintf("%v", err),
		"stack":     string(stack),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// formatStack 去掉 runtime 噪音行
func formatStack(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")
	var filtered []string

	for _, line := range lines {
		if strings.Contains(line, "runtime/panic.go") ||
			strings.Contains(line, "/runtime/") {
			continue
		}
		filtered = append(filtered, line)
	}

	return []byte(strings.Join(filtered, "\n"))
}
