package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================
// Request DTOs
// ============================================

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	UserName string `json:"userName" binding:"required,min=3"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type CreateInvitationRequest struct {
	Email  string  `json:"email" binding:"required,email"`
	Role   string  `json:"role" binding:"required,oneof=member team_admin app_admin"`
	TeamID *string `json:"teamId,omitempty"`
}

type LogMilesRequest struct {
	Miles    decimal.Decimal `json:"miles" binding:"required"`
	RideDate string          `json:"rideDate" binding:"required"`
	Notes    *string         `json:"notes,omitempty"`
}

type UpdateTeamRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=member team_admin app_admin"`
}

// ============================================
// Response DTOs
// ============================================

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type UserResponse struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	UserName     string          `json:"userName"`
	Role         string          `json:"role"`
	TeamID       *string         `json:"teamId,omitempty"`
	TeamName     *string         `json:"teamName,omitempty"`
	TotalMiles   decimal.Decimal `json:"totalMiles"`
	JoinedTeamAt *time.Time      `json:"joinedTeamAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type TeamResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Image       *string         `json:"image,omitempty"`
	MemberIDs   []string        `json:"memberIds"`
	AdminIDs    []string        `json:"adminIds"`
	MemberCount int             `json:"memberCount"`
	TotalMiles  decimal.Decimal `json:"totalMiles"`
	TotalRides  int             `json:"totalRides"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

type InvitationResponse struct {
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	TeamID          *string    `json:"teamId,omitempty"`
	TeamName        *string    `json:"teamName,omitempty"`
	InvitedBy       string     `json:"invitedBy"`
	InviterUserName *string    `json:"inviterUserName,omitempty"`
	Used            bool       `json:"used"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	UsedAt          *time.Time `json:"usedAt,omitempty"`
	InviteLink      string     `json:"inviteLink,omitempty"`
}

type InvitationCheckResponse struct {
	Status   string  `json:"status"`
	Role     string  `json:"role,omitempty"`
	TeamName *string `json:"teamName,omitempty"`
}

type MileLogResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	UserName  string          `json:"userName"`
	TeamID    *string         `json:"teamId,omitempty"`
	TeamName  *string         `json:"teamName,omitempty"`
	Miles     decimal.Decimal `json:"miles"`
	RideDate  string          `json:"rideDate"`
	Notes     *string         `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
