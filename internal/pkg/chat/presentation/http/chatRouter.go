package http

import (
	"github.com/gin-gonic/gin"

	cport "whisp/internal/infrastructure/cache/port"
	qport "whisp/internal/infrastructure/queue/port"
	"whisp/internal/infrastructure/realtime"
	"whisp/internal/pkg/auth"
	"whisp/internal/pkg/chat/presentation/controller"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
	users "whisp/internal/repository/port"
)

// Options bundles the collaborators the chat endpoints need. Cache and Queue
// may be nil; the features backed by them degrade gracefully.
type Options struct {
	Messages repository.MessageRepository
	Users    users.UserRepository
	Registry *realtime.Registry
	Authn    auth.Authenticator
	Cache    cport.Cache
	Queue    qport.Client

	MessageRate  float64
	MessageBurst int
}

// RegisterRoutes mounts the chat endpoints under the given group. The
// websocket route authenticates itself via its token query parameter; the
// request/response routes rely on the bearer middleware.
func RegisterRoutes(g *gin.RouterGroup, opts Options) {
	socketCtl := controller.NewChatSocketController(opts.Messages, opts.Registry, opts.Authn, opts.Queue, opts.MessageRate, opts.MessageBurst)
	threadCtl := controller.NewGetThreadController(opts.Messages)
	listCtl := controller.NewChatListController(opts.Messages, opts.Users)
	partnerCtl := controller.NewPartnerInfoController(opts.Users, opts.Cache)

	g.GET("/chat/ws", socketCtl.Handle())

	authed := g.Group("", auth.Middleware(opts.Authn))
	authed.GET("/chat/messages", threadCtl.Handle())
	authed.GET("/chat/list", listCtl.Handle())
	authed.GET("/chat/partner", partnerCtl.Handle())
}
