package middleware

import (
	"go.uber.org/zap"
)

var log = zap.NewNop()

// Init 注入中间件使用的 logger
func Init(l *zap.Logger) {
	if l != nil {
		log = l
	}
}
