package dto

// CarResponse represents a car listing in API responses
type CarResponse struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}
