package types

// RegisterRequest creates a user account.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=150"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=8,max=150"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// RecipeIngredientInput references an existing ingredient and the amount used.
type RecipeIngredientInput struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required,min=1"`
}

// RecipeInput is the write body of POST and PATCH /recipes. Image is a base64 data URI
// and may be left empty on update to keep the current picture.
type RecipeInput struct {
	Ingredients []RecipeIngredientInput `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []uint                  `json:"tags" binding:"required,min=1"`
	Image       string                  `json:"image"`
	Name        string                  `json:"name" binding:"required,max=200"`
	Text        string                  `json:"text" binding:"required"`
	CookingTime int                     `json:"cooking_time" binding:"required,min=1"`
}

type TagInput struct {
	Name  string `json:"name" binding:"required,max=256"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
	Slug  string `json:"slug" binding:"required,max=50,slug"`
}

type IngredientInput struct {
	Name            string `json:"name" binding:"required,max=256"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=10"`
}
