package http

import (
	"github.com/gin-gonic/gin"
)

// Server wraps the gin engine serving the analysis read API and the
// enqueue endpoint. The engine is exported so tests can drive routes
// without binding a port.
type Server struct {
	Engine *gin.Engine
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

// Run blocks serving HTTP on the given address.
func (s *Server) Run(address string) error {
	return s.Engine.Run(address)
}
