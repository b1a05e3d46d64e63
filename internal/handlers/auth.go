package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/auth"
	"github.com/ukydev/motor-insurance/internal/db"
	"github.com/ukydev/motor-insurance/internal/middleware"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/respond"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeBody(w, r, &loginReq); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			writeError(w, r, err)
			return
		}
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	if !user.IsActive {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, auth.ErrUserInactive.Error())
		return
	}

	token, expiresAt, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}

	respond.JSON(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
	})
}

// Register creates a user account. Routed behind the manage_users permission.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := decodeBody(w, r, &registerReq); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.createUser(r, registerReq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) createUser(r *http.Request, req models.RegisterRequest) (*models.User, error) {
	if _, err := h.userCollection.FindUserByUsername(r.Context(), req.Username); err == nil {
		return nil, db.ErrDuplicate
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if _, err := h.userCollection.FindUserByEmail(r.Context(), req.Email); err == nil {
		return nil, db.ErrDuplicate
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := h.userCollection.InsertUser(r.Context(), models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Office:       req.Office,
	})
	if err != nil {
		return nil, err
	}

	fields := log.Fields{"user_id": user.ID.Hex(), "username": user.Username, "role": user.Role}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		fields["created_by"] = claims.Username
	}
	log.WithFields(fields).Info("User registered")
	return user, nil
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "User context not found")
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}
