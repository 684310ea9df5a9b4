package ports

import (
	"context"
	"time"

	"github.com/layer-3/dapptober/core"
)

// ProfileRepository persists profiles. Implementations enforce one row per wallet address.
type ProfileRepository interface {
	// Ensure returns the profile for address, creating it if absent
	Ensure(ctx context.Context, address string) (core.Profile, error)
	// TouchLogin creates the profile if absent and sets last_login_at
	TouchLogin(ctx context.Context, address string, at time.Time) (core.Profile, error)
	GetByAddress(ctx context.Context, address string) (core.Profile, error)
	Update(ctx context.Context, address string, update core.ProfileUpdate) (core.Profile, error)
	Stats(ctx context.Context, address string) (core.ProfileStats, error)
}

// LikeRepository persists likes, unique per (wallet, day)
type LikeRepository interface {
	// Remove deletes the like and reports whether one existed
	Remove(ctx context.Context, address string, day int) (bool, error)
	// Add inserts the like, ignoring an existing one
	Add(ctx context.Context, like core.Like) error
	Exists(ctx context.Context, address string, day int) (bool, error)
	CountByDay(ctx context.Context, day int) (int, error)
}

// CommentRepository persists comments
type CommentRepository interface {
	Create(ctx context.Context, comment core.Comment) (core.Comment, error)
	ListByDay(ctx context.Context, day int) ([]core.Comment, error)
	// Delete removes the comment if address authored it, otherwise core.ErrNotFound
	Delete(ctx context.Context, id, address string) error
}

// SubmissionRepository persists submissions, unique per (wallet, day)
type SubmissionRepository interface {
	// Create returns core.ErrAlreadyExists when the wallet already submitted for the day
	Create(ctx context.Context, submission core.Submission) (core.Submission, error)
	ListByAddress(ctx context.Context, address string) ([]core.Submission, error)
	Showcase(ctx context.Context, limit int) ([]core.ShowcaseEntry, error)
}
