package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/ports"
)

const profileColumns = `id, wallet_address,
	COALESCE(display_name, ''), COALESCE(bio, ''), COALESCE(avatar_url, ''),
	COALESCE(twitter_handle, ''), COALESCE(github_handle, ''), COALESCE(website_url, ''),
	created_at, updated_at, last_login_at`

// ProfileRepository implements ports.ProfileRepository
type ProfileRepository struct {
	db DB
}

func NewProfileRepository(db DB) ports.ProfileRepository {
	return &ProfileRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (core.Profile, error) {
	var (
		p         core.Profile
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.WalletAddress,
		&p.DisplayName, &p.Bio, &p.AvatarURL,
		&p.TwitterHandle, &p.GithubHandle, &p.WebsiteURL,
		&p.CreatedAt, &p.UpdatedAt, &lastLogin,
	)
	if err != nil {
		return core.Profile{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLoginAt = &t
	}
	return p, nil
}

// Ensure inserts the profile if absent. The no-op update makes RETURNING yield the existing row.
func (r *ProfileRepository) Ensure(ctx context.Context, address string) (core.Profile, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (id, wallet_address, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (wallet_address)
		DO UPDATE SET wallet_address = EXCLUDED.wallet_address
		RETURNING `+profileColumns,
		uuid.NewString(), address)

	p, err := scanProfile(row)
	if err != nil {
		return core.Profile{}, mapError(err, "ensure profile")
	}
	return p, nil
}

func (r *ProfileRepository) TouchLogin(ctx context.Context, address string, at time.Time) (core.Profile, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (id, wallet_address, created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, $3, $3)
		ON CONFLICT (wallet_address)
		DO UPDATE SET
			last_login_at = EXCLUDED.last_login_at,
			updated_at = EXCLUDED.updated_at
		RETURNING `+profileColumns,
		uuid.NewString(), address, at.UTC())

	p, err := scanProfile(row)
	if err != nil {
		return core.Profile{}, mapError(err, "touch login")
	}
	return p, nil
}

func (r *ProfileRepository) GetByAddress(ctx context.Context, address string) (core.Profile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE wallet_address = $1
		LIMIT 1`, address)

	p, err := scanProfile(row)
	if err != nil {
		return core.Profile{}, mapError(err, "get profile")
	}
	return p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, address string, update core.ProfileUpdate) (core.Profile, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE profiles SET
			display_name = COALESCE($2, display_name),
			bio = COALESCE($3, bio),
			avatar_url = COALESCE($4, avatar_url),
			twitter_handle = COALESCE($5, twitter_handle),
			github_handle = COALESCE($6, github_handle),
			website_url = COALESCE($7, website_url),
			updated_at = now()
		WHERE wallet_address = $1
		RETURNING `+profileColumns,
		address,
		update.DisplayName, update.Bio, update.AvatarURL,
		update.TwitterHandle, update.GithubHandle, update.WebsiteURL)

	p, err := scanProfile(row)
	if err != nil {
		return core.Profile{}, mapError(err, "update profile")
	}
	return p, nil
}

func (r *ProfileRepository) Stats(ctx context.Context, address string) (core.ProfileStats, error) {
	var stats core.ProfileStats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM submissions WHERE wallet_address = $1),
			(SELECT count(*) FROM comments WHERE wallet_address = $1),
			(SELECT count(*) FROM likes WHERE wallet_address = $1)`,
		address).Scan(&stats.Submissions, &stats.Comments, &stats.Likes)
	if err != nil {
		return core.ProfileStats{}, mapError(err, "profile stats")
	}
	return stats, nil
}
