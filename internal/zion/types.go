package zion

import "time"

// Audience is the visibility tier of a journal post
type Audience string

const (
	AudiencePublic          Audience = "PUBLIC"
	AudienceTeachersOnly    Audience = "TEACHERS_ONLY"
	AudienceParentsOnly     Audience = "PARENTS_ONLY"
	AudienceStudentsParents Audience = "STUDENTS_PARENTS"
)

// Valid reports whether a is one of the known audience tiers
func (a Audience) Valid() bool {
	switch a {
	case AudiencePublic, AudienceTeachersOnly, AudienceParentsOnly, AudienceStudentsParents:
		return true
	}
	return false
}

// Role is the capacity in which a viewer belongs to an organization
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

// Membership ties the viewer to an organization under one role
type Membership struct {
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Role             Role   `json:"role"`
}

// User is the profile returned by /api/auth/me
type User struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	MiddleName  string       `json:"middle_name,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	IsOnboarded bool         `json:"is_onboarded"`
	Memberships []Membership `json:"memberships"`
	CreatedAt   time.Time    `json:"created_at"`
}

// FullName joins the non-empty name parts
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// Registration holds the fields for account creation
type Registration struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name,omitempty"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Password   string `json:"password"`
}

// AuthResponse is returned by the login and register endpoints
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// Admin is the account behind an admin token
type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AdminAuthResponse is returned by /api/admin/login
type AdminAuthResponse struct {
	AccessToken string `json:"access_token"`
	Admin       *Admin `json:"admin"`
}

// Author is the embedded author of a post or comment
type Author struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// MediaFile is an uploaded file attached to a post
type MediaFile struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_filename"`
	FileType     string `json:"file_type"`
	FileURL      string `json:"file_url"`
}

// Post represents a journal post
type Post struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id"`
	Author         Author      `json:"author"`
	Content        string      `json:"content"`
	AudienceType   Audience    `json:"audience_type"`
	IsPinned       bool        `json:"is_pinned"`
	CreatedAt      time.Time   `json:"created_at"`
	LikesCount     int         `json:"likes_count"`
	UserHasLiked   bool        `json:"user_has_liked"`
	CommentsCount  int         `json:"comments_count"`
	MediaFiles     []MediaFile `json:"media_files"`
}

// NewPost is the body of a post creation call
type NewPost struct {
	Content      string   `json:"content"`
	AudienceType Audience `json:"audience_type"`
	MediaFileIDs []string `json:"media_file_ids"`
	IsPinned     bool     `json:"is_pinned"`
}

// LikeState is the server's view of a like after a toggle
type LikeState struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// Comment is a comment on a post. Replies are one level deep.
type Comment struct {
	ID              string    `json:"id"`
	PostID          string    `json:"post_id"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	Author          Author    `json:"author"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	LikesCount      int       `json:"likes_count"`
	UserHasLiked    bool      `json:"user_has_liked"`
	Replies         []Comment `json:"replies"`
}

// NewComment is the body of a comment creation call
type NewComment struct {
	Content         string `json:"content"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
}

// EricSettings configures the business AI assistant of an organization
type EricSettings struct {
	IsEnabled              bool   `json:"is_enabled"`
	CanAccessEmployeeData  bool   `json:"can_access_employee_data"`
	CanAccessFinancialData bool   `json:"can_access_financial_data"`
	CanAccessTaskData      bool   `json:"can_access_task_data"`
	CanAccessCustomerData  bool   `json:"can_access_customer_data"`
	CustomInstructions     string `json:"custom_instructions"`
}

// TaskTemplate is a reusable task definition of a work organization
type TaskTemplate struct {
	ID                  string    `json:"id,omitempty"`
	OrganizationID      string    `json:"organization_id,omitempty"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	TitleTemplate       string    `json:"title_template"`
	DefaultPriority     string    `json:"default_priority"`
	DefaultDeadlineDays int       `json:"default_deadline_days"`
	Subtasks            []string  `json:"subtasks"`
	RequiresReview      bool      `json:"requires_review"`
	CreatedAt           time.Time `json:"created_at"`
}
