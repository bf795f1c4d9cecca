// internal/handlers/auth.go
package handlers

import (
	"net/http"

	"questlab/internal/auth"
	"questlab/internal/models"
	"questlab/internal/services"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

const authCookieMaxAge = 86400

func Register(users *services.UserService, tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := users.Register(req.Username, req.Password, models.Role(req.Role))
		if err != nil {
			respondError(c, err)
			return
		}

		token, err := tokens.GenerateToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		c.SetCookie("auth_token", token, authCookieMaxAge, "/", "", false, true)
		c.JSON(http.StatusCreated, AuthResponse{Token: token, User: *user})
	}
}

func Login(users *services.UserService, tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := users.Authenticate(req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		token, err := tokens.GenerateToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		c.SetCookie("auth_token", token, authCookieMaxAge, "/", "", false, true)
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: *user})
	}
}

func Logout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.Status(http.StatusOK)
}

func GetProfile(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.Get(c.GetUint("userID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func UpdateRole(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := users.UpdateRole(c.GetUint("userID"), models.Role(req.Role))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// currentUser loads the authenticated user set by the auth middleware.
func currentUser(c *gin.Context, users *services.UserService) (*models.User, bool) {
	user, err := users.Get(c.GetUint("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
		return nil, false
	}
	return user, true
}
