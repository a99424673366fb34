package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"ChamCong/internal/handler"
	"ChamCong/internal/middleware"
)

func Register(h *server.Hertz, chat *handler.ChatHandler) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	messages := v1.Group("/chat")
	{
		messages.POST("/messages", chat.HandleMessage)
	}
}
