package owners

type RegisterRequest struct {
	Name   string `json:"name" validate:"required,min=3"`
	Secret string `json:"secret" validate:"required,min=12"`
}

type TokenRequest struct {
	Name   string `json:"name" validate:"required"`
	Secret string `json:"secret" validate:"required"`
}

type Owner struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}
