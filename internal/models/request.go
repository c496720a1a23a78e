package models

// LoginRequest represents the login credentials
type LoginRequest struct {
	// User's email address
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
	// User's password
	Password string `json:"password" validate:"required" example:"password123"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	// Supabase access token
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType string `json:"type" example:"Bearer"`
}

// GenerateRequest is the body of POST /api/generate. Prompt is accepted as an
// alias of PromptText for older clients.
type GenerateRequest struct {
	PromptText string `json:"promptText"`
	Prompt     string `json:"prompt"`
	Mode       string `json:"mode" validate:"omitempty,oneof=flash realistic"`
}

// TryOnRequest is the body of POST /api/tryon.
type TryOnRequest struct {
	BodyImage   string `json:"bodyImage" validate:"required,image_payload"`
	TattooImage string `json:"tattooImage" validate:"required,image_payload"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// SaveTattooRequest is the body of POST /api/tattoos.
type SaveTattooRequest struct {
	Prompt   string `json:"prompt" validate:"required"`
	ImageURL string `json:"imageUrl" validate:"required,url"`
}
