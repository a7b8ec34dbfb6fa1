package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type userRequest struct {
	ID          string    `json:"id"          validate:"required"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"       validate:"required,email"`
	Phone       string    `json:"phone"`
	Avatar      string    `json:"avatar"      validate:"omitempty,url"`
	AccountType string    `json:"accountType" validate:"required"`
	CreatedAt   time.Time `json:"createdAt"`
}

type loginRequest struct {
	Token    string       `json:"token"    validate:"required"`
	User     *userRequest `json:"user"     validate:"required"`
	Remember bool         `json:"remember"`
}

// --- Response types ---

type userResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Avatar      string    `json:"avatar,omitempty"`
	AccountType string    `json:"accountType"`
	CreatedAt   time.Time `json:"createdAt"`
}

type sessionResponse struct {
	Role          string        `json:"role"`
	Authenticated bool          `json:"authenticated"`
	Tier          string        `json:"tier,omitempty"`
	User          *userResponse `json:"user,omitempty"`
}

type menuNodeResponse struct {
	Key      string             `json:"key"`
	Label    string             `json:"label"`
	Path     string             `json:"path,omitempty"`
	Children []menuNodeResponse `json:"children"`
}

type navigationResponse struct {
	Role      string             `json:"role"`
	ActiveKey string             `json:"activeKey,omitempty"`
	Items     []menuNodeResponse `json:"items"`
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Read      bool      `json:"read"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type feedResponse struct {
	Items       []notificationResponse `json:"items"`
	UnreadCount int                    `json:"unreadCount"`
	Stale       bool                   `json:"stale"`
	LastError   string                 `json:"lastError,omitempty"`
	FetchedAt   *time.Time             `json:"fetchedAt,omitempty"`
}

type bookmarksResponse struct {
	IDs []string `json:"ids"`
}

type bookmarkToggleResponse struct {
	ID         string `json:"id"`
	Bookmarked bool   `json:"bookmarked"`
}
