package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/layer-3/dapptober/adapters/memory"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice = "0x00000000000000000000000000000000000000a1"
	bob   = "0x00000000000000000000000000000000000000b2"
)

func newSocialService(t *testing.T) (*service.SocialService, *recordingPublisher) {
	t.Helper()
	db := memory.NewDatabase()
	pub := &recordingPublisher{}
	svc := service.NewSocialService(
		memory.NewProfileRepository(db),
		memory.NewLikeRepository(db),
		memory.NewCommentRepository(db),
		memory.NewSubmissionRepository(db),
		pub,
		zap.NewNop(),
	)
	return svc, pub
}

func strPtr(s string) *string { return &s }

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSocialService(t)

	t.Run("get missing", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, alice)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("ensure is idempotent", func(t *testing.T) {
		first, err := svc.EnsureProfile(ctx, alice)
		require.NoError(t, err)
		_, err = svc.EnsureProfile(ctx, strings.ToUpper(alice[2:]))
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
		second, err := svc.EnsureProfile(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("owner updates", func(t *testing.T) {
		p, err := svc.UpdateProfile(ctx, alice, alice, core.ProfileUpdate{
			DisplayName: strPtr("  Alice  "),
			WebsiteURL:  strPtr("https://alice.example"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice", p.DisplayName)
		assert.Equal(t, "https://alice.example", p.WebsiteURL)
	})

	t.Run("others are forbidden", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, bob, alice, core.ProfileUpdate{DisplayName: strPtr("Mallory")})
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, alice, alice, core.ProfileUpdate{DisplayName: strPtr(strings.Repeat("a", 51))})
		assert.ErrorIs(t, err, core.ErrInvalidRequest)

		_, err = svc.UpdateProfile(ctx, alice, alice, core.ProfileUpdate{AvatarURL: strPtr("javascript:alert(1)")})
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
	})
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	svc, pub := newSocialService(t)

	state, err := svc.ToggleLike(ctx, alice, 4)
	require.NoError(t, err)
	assert.Equal(t, service.LikeState{Liked: true, Count: 1}, state)

	state, err = svc.ToggleLike(ctx, bob, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Count)

	state, err = svc.ToggleLike(ctx, alice, 4)
	require.NoError(t, err)
	assert.Equal(t, service.LikeState{Liked: false, Count: 1}, state)

	status, err := svc.LikeStatus(ctx, bob, 4)
	require.NoError(t, err)
	assert.Equal(t, service.LikeState{Liked: true, Count: 1}, status)

	anon, err := svc.LikeStatus(ctx, "", 4)
	require.NoError(t, err)
	assert.False(t, anon.Liked)

	_, err = svc.ToggleLike(ctx, alice, 32)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	require.Len(t, pub.activity, 3)
	assert.Equal(t, core.ActivityUnliked, pub.activity[2].Kind)

	// liking creates the profile
	_, err = svc.GetProfile(ctx, bob)
	assert.NoError(t, err)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSocialService(t)

	_, err := svc.UpdateProfile(ctx, alice, alice, core.ProfileUpdate{DisplayName: strPtr("Alice")})
	require.NoError(t, err)

	t.Run("rejects empty and oversized", func(t *testing.T) {
		_, err := svc.AddComment(ctx, alice, 1, "   ")
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
		_, err = svc.AddComment(ctx, alice, 1, strings.Repeat("x", 2001))
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
	})

	c, err := svc.AddComment(ctx, alice, 1, "  great prompt  ")
	require.NoError(t, err)
	assert.Equal(t, "great prompt", c.Content)
	assert.Equal(t, "Alice", c.Author.DisplayName)

	list, err := svc.ListComments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.ErrorIs(t, svc.DeleteComment(ctx, bob, c.ID), core.ErrNotFound)
	require.NoError(t, svc.DeleteComment(ctx, alice, c.ID))

	list, err = svc.ListComments(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmissions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSocialService(t)

	input := service.SubmissionInput{
		Title:       "Pixel forge",
		Description: "Mint pixel art",
		DemoURL:     "https://pixels.example",
	}

	t.Run("validation", func(t *testing.T) {
		_, err := svc.SubmitDapp(ctx, alice, 1, service.SubmissionInput{Title: "x"})
		assert.ErrorIs(t, err, core.ErrInvalidRequest)

		bad := input
		bad.DemoURL = "ftp://pixels.example"
		_, err = svc.SubmitDapp(ctx, alice, 1, bad)
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
	})

	sub, err := svc.SubmitDapp(ctx, alice, 1, input)
	require.NoError(t, err)
	assert.Equal(t, core.SubmissionStatusPublished, sub.Status)
	assert.Equal(t, alice, sub.WalletAddress)

	_, err = svc.SubmitDapp(ctx, alice, 1, input)
	assert.ErrorIs(t, err, core.ErrAlreadyExists)

	_, err = svc.SubmitDapp(ctx, alice, 2, input)
	require.NoError(t, err)

	subs, err := svc.ListProfileSubmissions(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	showcase, err := svc.Showcase(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, showcase, 2)

	stats, err := svc.ProfileStats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Submissions)
}
