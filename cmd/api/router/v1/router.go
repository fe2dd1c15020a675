package v1

import (
	"github.com/gin-gonic/gin"

	cport "whisp/internal/infrastructure/cache/port"
	"whisp/internal/infrastructure/config"
	qport "whisp/internal/infrastructure/queue/port"
	"whisp/internal/infrastructure/realtime"
	"whisp/internal/pkg/auth"
	authHTTP "whisp/internal/pkg/auth/presentation/http"
	chatHTTP "whisp/internal/pkg/chat/presentation/http"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
	users "whisp/internal/repository/port"
)

// Dependencies carries the constructed collaborators the v1 API wires
// together. Cache and Queue are optional.
type Dependencies struct {
	Cfg      config.Config
	Registry *realtime.Registry
	Authn    auth.Authenticator
	Tokens   *auth.TokenManager
	Users    users.UserRepository
	Messages repository.MessageRepository
	Cache    cport.Cache
	Queue    qport.Client
}

// RegisterRoutes mounts all version 1 API routes under /api/v1.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	v1 := r.Group("/api/v1")

	authHTTP.RegisterRoutes(v1, deps.Users, deps.Tokens, deps.Authn)
	chatHTTP.RegisterRoutes(v1, chatHTTP.Options{
		Messages:     deps.Messages,
		Users:        deps.Users,
		Registry:     deps.Registry,
		Authn:        deps.Authn,
		Cache:        deps.Cache,
		Queue:        deps.Queue,
		MessageRate:  deps.Cfg.MessageRate,
		MessageBurst: deps.Cfg.MessageBurst,
	})
}
