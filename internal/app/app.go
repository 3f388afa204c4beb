package app

import (
	"log"

	"github.com/EDWINCHENC/c-transfer-unique/internal/config"
	"github.com/EDWINCHENC/c-transfer-unique/internal/handler"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/logging"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/ratelimit"
	"github.com/EDWINCHENC/c-transfer-unique/internal/repository"
	"github.com/EDWINCHENC/c-transfer-unique/internal/service"
	"github.com/EDWINCHENC/c-transfer-unique/internal/storage"
)

func Run(cfg *config.Config) {
	logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)

	db, err := repository.NewDB(cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}

	rdb, err := repository.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal(err)
	}

	blobs, err := storage.NewBlobStore(cfg.UploadDir, cfg.MaxFileSizeBytes())
	if err != nil {
		log.Fatal(err)
	}

	messageRepo := repository.NewMessageRepository(db)
	fileRepo := repository.NewFileAccessRepository(db)
	quota := service.NewQuotaPolicy(cfg.DailyCodeLimit)
	relay := service.NewRelayService(messageRepo, fileRepo, blobs, quota)

	messageHandler := handler.NewMessageHandler(relay)
	fileHandler := handler.NewFileHandler(relay, blobs, cfg.MaxFileSizeBytes())
	limiter := ratelimit.New(rdb, handler.ClientIP)

	server := NewServer(messageHandler, fileHandler, limiter, cfg.AllowedOrigins())
	server.Run(cfg.ServerPort)
}
