package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/transport/http/middleware"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse builds an error payload carrying the request correlation ID.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: middleware.RequestIDFromContext(c.Request.Context()),
	}
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the payload for POST /auth/refresh. The token may also
// arrive via cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest optionally names the refresh token to revoke alongside the
// access token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// SweetRequest is the payload for creating or updating a product.
type SweetRequest struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required"`
	PriceCents  int64  `json:"price_cents"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// SweetResponse is the public view of a product.
type SweetResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	Quantity    int       `json:"quantity"`
	InStock     bool      `json:"in_stock"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newSweetResponse(sweet *domain.Sweet) SweetResponse {
	return SweetResponse{
		ID:          sweet.ID,
		Name:        sweet.Name,
		Category:    string(sweet.Category),
		PriceCents:  sweet.PriceCents,
		Quantity:    sweet.Quantity,
		InStock:     sweet.Quantity > 0,
		Description: sweet.Description,
		ImageURL:    sweet.ImageURL,
		CreatedAt:   sweet.CreatedAt,
		UpdatedAt:   sweet.UpdatedAt,
	}
}

// PurchaseRequest is the payload for buying a product.
type PurchaseRequest struct {
	Quantity int `json:"quantity"`
}

// RestockRequest is the payload for replenishing stock.
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// PurchaseResponse is the public view of a completed purchase.
type PurchaseResponse struct {
	ID              string    `json:"id"`
	SweetID         string    `json:"sweet_id"`
	SweetName       string    `json:"sweet_name"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents"`
	TotalPriceCents int64     `json:"total_price_cents"`
	PurchasedAt     time.Time `json:"purchased_at"`
}

func newPurchaseResponse(purchase *domain.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:              purchase.ID,
		SweetID:         purchase.SweetID,
		SweetName:       purchase.SweetName,
		Quantity:        purchase.Quantity,
		UnitPriceCents:  purchase.UnitPriceCents,
		TotalPriceCents: purchase.TotalPriceCents,
		PurchasedAt:     purchase.PurchasedAt,
	}
}

// PageResponse wraps a listing with pagination metadata.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
}
