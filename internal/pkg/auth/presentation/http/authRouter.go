package http

import (
	"github.com/gin-gonic/gin"

	"whisp/internal/pkg/auth"
	"whisp/internal/pkg/auth/presentation/controller"
	repository "whisp/internal/repository/port"
)

// RegisterRoutes mounts the account endpoints: /auth/* is public, /user/*
// requires a bearer token.
func RegisterRoutes(g *gin.RouterGroup, users repository.UserRepository, tokens *auth.TokenManager, authn auth.Authenticator) {
	authCtl := controller.NewAuthController(users, tokens)
	userCtl := controller.NewUserController(users)

	g.POST("/auth/register", authCtl.Register())
	g.POST("/auth/login", authCtl.Login())
	g.POST("/auth/refresh", authCtl.Refresh())

	authed := g.Group("", auth.Middleware(authn))
	authed.GET("/user", userCtl.Me())
	authed.PUT("/user/public-key", userCtl.UpdatePublicKey())
}
