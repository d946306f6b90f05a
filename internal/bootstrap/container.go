package bootstrap

import (
	"context"

	"chathub/internal/auth"
	"chathub/internal/config"
	"chathub/internal/hub"
	"chathub/internal/pkg/logger"
	"chathub/internal/repository/contract"
	"chathub/internal/repository/implementation"
	pkgNats "chathub/pkg/nats"
	"chathub/pkg/presence"

	"gorm.io/gorm"
)

// Container wires every dependency the server and the hub's background
// loop need. It's built once in main and handed to server.New.
type Container struct {
	Logger       logger.ILogger
	TokenManager *auth.TokenManager

	Users    contract.UserRepository
	Chats    contract.ChatRepository
	Messages contract.MessageRepository

	NatsPublisher  *pkgNats.Publisher
	NatsSubscriber *pkgNats.Subscriber
	PresenceBus    *presence.Bus

	Hub *hub.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	// The hub logs a line per register/unregister/broadcast; isolate it from
	// the console so interactive startup/audit output isn't drowned out
	// under real traffic, while still capturing it to the same log file.
	hubLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)

	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryHour)

	users := implementation.NewUserRepository(db)
	chats := implementation.NewChatRepository(db)
	messages := implementation.NewMessageRepository(db)

	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "failed to connect to NATS subscriber", map[string]interface{}{"error": err.Error()})
	}

	presenceBus, err := presence.NewBus(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "failed to connect to Redis presence bus", map[string]interface{}{"error": err.Error()})
		presenceBus = nil
	}

	startAuditConsumer(natsSub, sysLogger)

	chatHub := hub.New(cfg.Hub, users, chats, messages, natsPub, presenceBus, hubLogger)
	go chatHub.Run(context.Background())

	return &Container{
		Logger:         sysLogger,
		TokenManager:   tokenManager,
		Users:          users,
		Chats:          chats,
		Messages:       messages,
		NatsPublisher:  natsPub,
		NatsSubscriber: natsSub,
		PresenceBus:    presenceBus,
		Hub:            chatHub,
	}
}
