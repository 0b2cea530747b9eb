package auth

type Credentials struct {
	Email    string `form:"email" json:"email" validate:"required,email,max=254"`
	Password string `form:"password" json:"password" validate:"required,min=6,max=72"`
}

type loginForm struct {
	Credentials
	Next string `form:"next"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
