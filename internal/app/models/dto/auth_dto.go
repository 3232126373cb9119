package dto

// RegisterRequest carries the registration payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100" example:"Aylin Demir"`
	Email    string `json:"email" binding:"required,email" example:"aylin@school.edu.tr"`
	Password string `json:"password" binding:"required,min=8" example:"correct-horse"`
	College  string `json:"college" binding:"required,max=100" example:"Engineering"`
}

// TokenResponse carries the JWT pair issued at registration
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn" example:"3600"` // Access token lifetime in seconds
}

// RegisterResponse returns the created profile plus its token pair
type RegisterResponse struct {
	User   ProfileResponse `json:"user"`
	Tokens TokenResponse   `json:"tokens"`
}
