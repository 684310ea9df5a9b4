package core

import "time"

// FirstDay and LastDay bound the prompt calendar
const (
	FirstDay = 1
	LastDay  = 31
)

// Profile is the application-level user record keyed by wallet address
type Profile struct {
	ID            string     `json:"id"`
	WalletAddress string     `json:"wallet_address"`
	DisplayName   string     `json:"display_name,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	TwitterHandle string     `json:"twitter_handle,omitempty"`
	GithubHandle  string     `json:"github_handle,omitempty"`
	WebsiteURL    string     `json:"website_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// ProfileUpdate holds the optional fields a wallet owner may change
type ProfileUpdate struct {
	DisplayName   *string `json:"display_name"`
	Bio           *string `json:"bio"`
	AvatarURL     *string `json:"avatar_url"`
	TwitterHandle *string `json:"twitter_handle"`
	GithubHandle  *string `json:"github_handle"`
	WebsiteURL    *string `json:"website_url"`
}

// Author is the profile summary embedded in comments and showcase entries
type Author struct {
	WalletAddress string `json:"wallet_address"`
	DisplayName   string `json:"display_name,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// ProfileStats aggregates a wallet's activity
type ProfileStats struct {
	Submissions int `json:"submissions"`
	Comments    int `json:"comments"`
	Likes       int `json:"likes"`
}

// Like records a wallet liking a prompt day
type Like struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Day           int       `json:"dapp_day"`
	CreatedAt     time.Time `json:"created_at"`
}

// Comment is a wallet's comment on a prompt day
type Comment struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Day           int       `json:"dapp_day"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Author        Author    `json:"author"`
}

// SubmissionStatusPublished is the status given to new submissions
const SubmissionStatusPublished = "published"

// Submission is a project built for a prompt day
type Submission struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Day           int       `json:"day"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	DemoURL       string    `json:"demo_url"`
	GithubURL     string    `json:"github_url,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ShowcaseEntry is a submission decorated for the gallery
type ShowcaseEntry struct {
	Submission
	Author        Author `json:"author"`
	LikesCount    int    `json:"likes_count"`
	CommentsCount int    `json:"comments_count"`
}

// ValidDay reports whether day is on the prompt calendar
func ValidDay(day int) bool {
	return day >= FirstDay && day <= LastDay
}

// Activity kinds published when a wallet writes something
const (
	ActivityLiked     = "liked"
	ActivityUnliked   = "unliked"
	ActivityCommented = "commented"
	ActivitySubmitted = "submitted"
)

// Activity is a social write worth telling other services about
type Activity struct {
	Kind          string    `json:"kind"`
	WalletAddress string    `json:"wallet_address"`
	Day           int       `json:"dapp_day"`
	RefID         string    `json:"ref_id,omitempty"`
	At            time.Time `json:"at"`
}
