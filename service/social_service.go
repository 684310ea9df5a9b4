package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/internal/logging"
	"github.com/layer-3/dapptober/ports"
	"go.uber.org/zap"
)

const (
	maxDisplayName = 50
	maxBio         = 500
	maxHandle      = 50
	maxComment     = 2000
	maxTitle       = 100
	maxDescription = 2000

	DefaultShowcaseLimit = 50
	MaxShowcaseLimit     = 200
)

// LikeState is the like count of a day and whether the caller liked it
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// SubmissionInput is the user-provided part of a submission
type SubmissionInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DemoURL     string `json:"demo_url"`
	GithubURL   string `json:"github_url"`
	ImageURL    string `json:"image_url"`
}

// SocialService implements profiles, likes, comments and submissions.
// Every write ensures the caller's profile exists first.
type SocialService struct {
	profiles    ports.ProfileRepository
	likes       ports.LikeRepository
	comments    ports.CommentRepository
	submissions ports.SubmissionRepository
	eventPub    ports.EventPublisher
	logger      *zap.Logger
}

func NewSocialService(
	profiles ports.ProfileRepository,
	likes ports.LikeRepository,
	comments ports.CommentRepository,
	submissions ports.SubmissionRepository,
	eventPub ports.EventPublisher,
	logger *zap.Logger,
) *SocialService {
	return &SocialService{
		profiles:    profiles,
		likes:       likes,
		comments:    comments,
		submissions: submissions,
		eventPub:    eventPub,
		logger:      logger.Named("social"),
	}
}

// EnsureProfile returns the wallet's profile, creating it if needed
func (s *SocialService) EnsureProfile(ctx context.Context, address string) (core.Profile, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return core.Profile{}, err
	}
	return s.profiles.Ensure(ctx, address)
}

func (s *SocialService) GetProfile(ctx context.Context, address string) (core.Profile, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return core.Profile{}, err
	}
	return s.profiles.GetByAddress(ctx, address)
}

// UpdateProfile applies update to address's profile. Only the owner may do so.
func (s *SocialService) UpdateProfile(ctx context.Context, caller, address string, update core.ProfileUpdate) (core.Profile, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return core.Profile{}, err
	}
	if !strings.EqualFold(caller, address) {
		return core.Profile{}, core.ErrForbidden
	}
	if err := normalizeProfileUpdate(&update); err != nil {
		return core.Profile{}, err
	}

	if _, err := s.profiles.Ensure(ctx, address); err != nil {
		return core.Profile{}, err
	}
	return s.profiles.Update(ctx, address, update)
}

func normalizeProfileUpdate(u *core.ProfileUpdate) error {
	limits := []struct {
		name  string
		value *string
		max   int
		isURL bool
	}{
		{"display_name", u.DisplayName, maxDisplayName, false},
		{"bio", u.Bio, maxBio, false},
		{"avatar_url", u.AvatarURL, 0, true},
		{"twitter_handle", u.TwitterHandle, maxHandle, false},
		{"github_handle", u.GithubHandle, maxHandle, false},
		{"website_url", u.WebsiteURL, 0, true},
	}
	for _, f := range limits {
		if f.value == nil {
			continue
		}
		*f.value = strings.TrimSpace(*f.value)
		if f.max > 0 && utf8.RuneCountInString(*f.value) > f.max {
			return fmt.Errorf("%s exceeds %d characters: %w", f.name, f.max, core.ErrInvalidRequest)
		}
		if f.isURL && *f.value != "" {
			if err := validateURL(f.name, *f.value); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL: %w", field, core.ErrInvalidRequest)
	}
	return nil
}

func (s *SocialService) ProfileStats(ctx context.Context, address string) (core.ProfileStats, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return core.ProfileStats{}, err
	}
	return s.profiles.Stats(ctx, address)
}

// ListProfileSubmissions returns the wallet's submissions newest first
func (s *SocialService) ListProfileSubmissions(ctx context.Context, address string) ([]core.Submission, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return s.submissions.ListByAddress(ctx, address)
}

// ToggleLike removes the caller's like on day if present, otherwise adds one
func (s *SocialService) ToggleLike(ctx context.Context, address string, day int) (LikeState, error) {
	address, err := s.prepareWrite(ctx, address, day)
	if err != nil {
		return LikeState{}, err
	}

	removed, err := s.likes.Remove(ctx, address, day)
	if err != nil {
		return LikeState{}, err
	}
	if !removed {
		if err := s.likes.Add(ctx, core.Like{WalletAddress: address, Day: day}); err != nil {
			return LikeState{}, err
		}
	}

	count, err := s.likes.CountByDay(ctx, day)
	if err != nil {
		return LikeState{}, err
	}

	kind := core.ActivityLiked
	if removed {
		kind = core.ActivityUnliked
	}
	s.publish(ctx, core.Activity{Kind: kind, WalletAddress: address, Day: day})

	return LikeState{Liked: !removed, Count: count}, nil
}

// LikeStatus reports the like count for day. address may be empty for anonymous callers.
func (s *SocialService) LikeStatus(ctx context.Context, address string, day int) (LikeState, error) {
	if !core.ValidDay(day) {
		return LikeState{}, invalidDay(day)
	}

	count, err := s.likes.CountByDay(ctx, day)
	if err != nil {
		return LikeState{}, err
	}
	state := LikeState{Count: count}

	if address != "" {
		address, err := core.NormalizeAddress(address)
		if err != nil {
			return LikeState{}, err
		}
		if state.Liked, err = s.likes.Exists(ctx, address, day); err != nil {
			return LikeState{}, err
		}
	}
	return state, nil
}

// AddComment stores a trimmed comment of 1..2000 characters
func (s *SocialService) AddComment(ctx context.Context, address string, day int, content string) (core.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return core.Comment{}, fmt.Errorf("comment is empty: %w", core.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(content) > maxComment {
		return core.Comment{}, fmt.Errorf("comment exceeds %d characters: %w", maxComment, core.ErrInvalidRequest)
	}

	address, err := s.prepareWrite(ctx, address, day)
	if err != nil {
		return core.Comment{}, err
	}

	comment, err := s.comments.Create(ctx, core.Comment{
		WalletAddress: address,
		Day:           day,
		Content:       content,
	})
	if err != nil {
		return core.Comment{}, err
	}

	s.publish(ctx, core.Activity{Kind: core.ActivityCommented, WalletAddress: address, Day: day, RefID: comment.ID})
	return comment, nil
}

// ListComments returns the day's comments newest first
func (s *SocialService) ListComments(ctx context.Context, day int) ([]core.Comment, error) {
	if !core.ValidDay(day) {
		return nil, invalidDay(day)
	}
	return s.comments.ListByDay(ctx, day)
}

// DeleteComment removes a comment authored by address
func (s *SocialService) DeleteComment(ctx context.Context, address, id string) error {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("comment id is required: %w", core.ErrInvalidRequest)
	}
	return s.comments.Delete(ctx, id, address)
}

// SubmitDapp records the wallet's project for day, once per day
func (s *SocialService) SubmitDapp(ctx context.Context, address string, day int, input SubmissionInput) (core.Submission, error) {
	sub := core.Submission{
		Day:         day,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		DemoURL:     strings.TrimSpace(input.DemoURL),
		GithubURL:   strings.TrimSpace(input.GithubURL),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Status:      core.SubmissionStatusPublished,
	}
	if err := validateSubmission(sub); err != nil {
		return core.Submission{}, err
	}

	address, err := s.prepareWrite(ctx, address, day)
	if err != nil {
		return core.Submission{}, err
	}
	sub.WalletAddress = address
	sub.CreatedAt = time.Now().UTC()

	created, err := s.submissions.Create(ctx, sub)
	if err != nil {
		return core.Submission{}, err
	}

	s.logger.Info("dapp submitted", logging.Address(address), zap.Int("day", day))
	s.publish(ctx, core.Activity{Kind: core.ActivitySubmitted, WalletAddress: address, Day: day, RefID: created.ID})
	return created, nil
}

func validateSubmission(sub core.Submission) error {
	switch {
	case sub.Title == "" || sub.Description == "" || sub.DemoURL == "":
		return fmt.Errorf("title, description and demo_url are required: %w", core.ErrInvalidRequest)
	case utf8.RuneCountInString(sub.Title) > maxTitle:
		return fmt.Errorf("title exceeds %d characters: %w", maxTitle, core.ErrInvalidRequest)
	case utf8.RuneCountInString(sub.Description) > maxDescription:
		return fmt.Errorf("description exceeds %d characters: %w", maxDescription, core.ErrInvalidRequest)
	}
	if err := validateURL("demo_url", sub.DemoURL); err != nil {
		return err
	}
	if sub.GithubURL != "" {
		if err := validateURL("github_url", sub.GithubURL); err != nil {
			return err
		}
	}
	if sub.ImageURL != "" {
		if err := validateURL("image_url", sub.ImageURL); err != nil {
			return err
		}
	}
	return nil
}

// Showcase returns published submissions newest first
func (s *SocialService) Showcase(ctx context.Context, limit int) ([]core.ShowcaseEntry, error) {
	if limit <= 0 {
		limit = DefaultShowcaseLimit
	}
	if limit > MaxShowcaseLimit {
		limit = MaxShowcaseLimit
	}
	return s.submissions.Showcase(ctx, limit)
}

// prepareWrite validates the target day and ensures the writer has a profile
func (s *SocialService) prepareWrite(ctx context.Context, address string, day int) (string, error) {
	if !core.ValidDay(day) {
		return "", invalidDay(day)
	}
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	if _, err := s.profiles.Ensure(ctx, address); err != nil {
		return "", fmt.Errorf("failed to ensure profile: %w", err)
	}
	return address, nil
}

func (s *SocialService) publish(ctx context.Context, activity core.Activity) {
	if activity.At.IsZero() {
		activity.At = time.Now().UTC()
	}
	if err := s.eventPub.PublishActivity(ctx, activity); err != nil {
		s.logger.Warn("failed to publish activity", logging.Address(activity.WalletAddress), zap.String("kind", activity.Kind), zap.Error(err))
	}
}

func invalidDay(day int) error {
	return fmt.Errorf("day %d is outside %d..%d: %w", day, core.FirstDay, core.LastDay, core.ErrInvalidRequest)
}
