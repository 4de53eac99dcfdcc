package server

import "github.com/gin-gonic/gin"

// Blueprint is a modular group of related routes mounted under a common URL
// prefix. Blueprints register themselves on the group the server hands them.
type Blueprint interface {
	Name() string
	Register(rg *gin.RouterGroup)
}
