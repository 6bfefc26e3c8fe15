package httpapi

import (
	"github.com/prabhucts/pmo/internal/chat"
	"github.com/prabhucts/pmo/internal/service"

	"go.uber.org/zap"
)

type UploadConfig struct {
	MaxSize int64
	Dir     string
}

type Handler struct {
	services *service.Services
	chat     *chat.Service
	uploads  UploadConfig
	log      *zap.Logger
}

func New(services *service.Services, chat *chat.Service, uploads UploadConfig, log *zap.Logger) *Handler {
	return &Handler{
		services: services,
		chat:     chat,
		uploads:  uploads,
		log:      log,
	}
}
