package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (a *API) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields",
			"fields": gin.H{
				"email":    req.Email == "",
				"name":     req.Name == "",
				"password": req.Password == "",
			},
		})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Password too short",
			"message": "Password must be at least 6 characters long",
		})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid email",
			"message": "Please provide a valid email address",
		})
		return
	}

	existing, err := a.store.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		serverError(c, "Registration failed", "Could not create user account")
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "User already exists",
			"message": "A user with this email already exists",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		serverError(c, "Registration failed", "Could not create user account")
		return
	}

	userID, err := a.store.CreateUser(c.Request.Context(), email, strings.TrimSpace(req.Name), string(hash))
	if err != nil {
		serverError(c, "Registration failed", "Could not create user account")
		return
	}

	user, err := a.store.GetUserByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		serverError(c, "Registration failed", "Could not create user account")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Missing credentials",
			"fields": gin.H{"email": req.Email == "", "password": req.Password == ""},
		})
		return
	}

	user, err := a.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		serverError(c, "Login failed", "Could not log in")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid credentials",
			"message": "Email or password is incorrect",
		})
		return
	}

	token, err := generateToken()
	if err != nil {
		serverError(c, "Login failed", "Could not create session")
		return
	}
	expiresAt := time.Now().Add(a.sessionTTL)
	if _, err := a.store.CreateSession(c.Request.Context(), user.ID, token, expiresAt); err != nil {
		serverError(c, "Login failed", "Could not create session")
		return
	}

	a.log.Info("user logged in", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Login successful",
		"token":      token,
		"expires_at": expiresAt.UTC(),
		"user":       user,
	})
}

func (a *API) handleLogout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 {
		if err := a.store.DeleteSession(c.Request.Context(), parts[1]); err != nil {
			serverError(c, "Logout failed", "Could not delete session")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func (a *API) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": middleware.CurrentUser(c)})
}

// generateToken returns an opaque 64-hex-char session token. Sessions
// are authorized by database lookup, so the token carries no claims.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
