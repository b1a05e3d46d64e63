package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleAgent      Role = "agent"
	RoleViewer     Role = "viewer"
)

// Actions checked by HasPermission.
const (
	ActionCalculateQuote = "calculate_quote"
	ActionViewVehicles   = "view_vehicles"
	ActionManageVehicles = "manage_vehicles"
	ActionDeleteVehicles = "delete_vehicles"
	ActionPriceVehicles  = "price_vehicles"
	ActionRecordPayments = "record_payments"
	ActionViewPayments   = "view_payments"
	ActionViewStats      = "view_stats"
	ActionManageUsers    = "manage_users"
)

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	LastName     string             `bson:"last_name" json:"lastName"`
	Office       string             `bson:"office,omitempty" json:"office,omitempty"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Office    string `json:"office,omitempty" validate:"max=100"`
	Role      Role   `json:"role" validate:"required,oneof=admin supervisor agent viewer"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// Claims is the identity carried by an access token.
type Claims struct {
	UserID   string
	Username string
	Role     Role
	Exp      int64
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleAgent, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleSupervisor:
		return action != ActionManageUsers
	case RoleAgent:
		return action == ActionCalculateQuote || action == ActionViewVehicles ||
			action == ActionManageVehicles || action == ActionPriceVehicles ||
			action == ActionRecordPayments || action == ActionViewPayments
	case RoleViewer:
		return action == ActionCalculateQuote || action == ActionViewVehicles ||
			action == ActionViewPayments || action == ActionViewStats
	default:
		return false
	}
}
