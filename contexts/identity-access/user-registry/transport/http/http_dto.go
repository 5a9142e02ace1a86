package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type UserDTO struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	Status string  `json:"status"`
	Data   UserDTO `json:"data"`
}

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Status      string  `json:"status"`
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresAt   string  `json:"expires_at"`
	User        UserDTO `json:"user"`
}

type UserResponse struct {
	Status string  `json:"status"`
	Data   UserDTO `json:"data"`
}

type UserListResponse struct {
	Status string    `json:"status"`
	Data   []UserDTO `json:"data"`
}

type AssignRoleRequest struct {
	Role string `json:"role"`
}

type LinkProviderRequest struct {
	ProviderID string `json:"provider_id"`
	CustomerID string `json:"customer_id"`
}

type UnlinkProviderRequest struct {
	ProviderID string `json:"provider_id"`
	CustomerID string `json:"customer_id"`
}

type RelationshipEndedResponse struct {
	Status string `json:"status"`
}

type RelationshipResponse struct {
	Status string `json:"status"`
	Data   struct {
		RelationshipID string `json:"relationship_id"`
		ProviderID     string `json:"provider_id"`
		CustomerID     string `json:"customer_id"`
		Active         bool   `json:"active"`
	} `json:"data"`
}
