package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/api/middleware"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/resume"
)

func identityFromContext(c *gin.Context) (resume.Identity, bool) {
	value, exists := c.Get(middleware.IdentityKey)
	if !exists {
		return resume.Identity{}, false
	}
	ident, ok := value.(resume.Identity)
	return ident, ok
}

func currentUserFromContext(c *gin.Context) (database.User, bool) {
	value, exists := c.Get(middleware.UserKey)
	if !exists {
		return database.User{}, false
	}
	user, ok := value.(database.User)
	return user, ok
}
