package server

import (
	"time"

	"github.com/verificapessoa/verificapessoa/internal/store"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// RegisterRequest represents the signup payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a signed JWT.
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// RegisterResponse confirms a new account.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Credits   int       `json:"credits"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u store.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Credits: u.Credits, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}

// SearchRequest names the subject of a background check.
type SearchRequest struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
}

// SearchSummary is a history row without the report body.
type SearchSummary struct {
	ID          string    `json:"id"`
	SearchName  string    `json:"search_name"`
	NationalID  string    `json:"national_id,omitempty"`
	RiskLevel   string    `json:"risk_assessment"`
	CreditsUsed int       `json:"credits_used"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSearchSummary(r store.SearchRecord) SearchSummary {
	return SearchSummary{
		ID:          r.ID,
		SearchName:  r.SearchName,
		NationalID:  r.NationalID,
		RiskLevel:   r.Report.RiskAssessment,
		CreditsUsed: r.CreditsUsed,
		CreatedAt:   r.CreatedAt,
	}
}

// PurchaseRequest selects a credit package.
type PurchaseRequest struct {
	PackageType string  `json:"package_type"`
	Amount      float64 `json:"amount"`
	Credits     int     `json:"credits"`
}

// PIXInfo tells the buyer where to send the payment.
type PIXInfo struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// PurchaseResponse is returned for a new pending transaction.
type PurchaseResponse struct {
	TransactionID string  `json:"transaction_id"`
	PackageName   string  `json:"package_name"`
	Credits       int     `json:"credits"`
	Status        string  `json:"status"`
	PIXInfo       PIXInfo `json:"pix_info"`
}

// AddCreditsRequest is the admin manual top-up payload.
type AddCreditsRequest struct {
	Email   string `json:"email"`
	Credits int    `json:"credits"`
}

// ListResponse wraps admin and history listings.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func listOf[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}
