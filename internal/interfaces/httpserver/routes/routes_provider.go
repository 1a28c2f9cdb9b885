package routes

import (
	"github.com/gin-gonic/gin"

	v1 "babel-bridge/internal/interfaces/httpserver/routes/v1"
)

// Provider registers every versioned route group.
type Provider struct {
	v1 *v1.Routes
}

func NewProvider(v1Routes *v1.Routes) *Provider {
	return &Provider{v1: v1Routes}
}

// Register attaches all API routes to the engine.
func (p *Provider) Register(engine *gin.Engine) {
	p.v1.Register(engine)
}
