package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/ports"
)

// LikeRepository implements ports.LikeRepository
type LikeRepository struct {
	db DB
}

func NewLikeRepository(db DB) ports.LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Remove(ctx context.Context, address string, day int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM likes WHERE wallet_address = $1 AND dapp_day = $2`, address, day)
	if err != nil {
		return false, mapError(err, "remove like")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LikeRepository) Add(ctx context.Context, like core.Like) error {
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO likes (id, wallet_address, dapp_day, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet_address, dapp_day) DO NOTHING`,
		like.ID, like.WalletAddress, like.Day, like.CreatedAt)
	return mapError(err, "add like")
}

func (r *LikeRepository) Exists(ctx context.Context, address string, day int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM likes WHERE wallet_address = $1 AND dapp_day = $2)`,
		address, day).Scan(&exists)
	if err != nil {
		return false, mapError(err, "like exists")
	}
	return exists, nil
}

func (r *LikeRepository) CountByDay(ctx context.Context, day int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM likes WHERE dapp_day = $1`, day).Scan(&count)
	if err != nil {
		return 0, mapError(err, "count likes")
	}
	return count, nil
}

// CommentRepository implements ports.CommentRepository
type CommentRepository struct {
	db DB
}

func NewCommentRepository(db DB) ports.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment core.Comment) (core.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	comment.Author = core.Author{WalletAddress: comment.WalletAddress}
	err := r.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO comments (id, wallet_address, dapp_day, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING wallet_address
		)
		SELECT COALESCE(p.display_name, ''), COALESCE(p.avatar_url, '')
		FROM inserted i
		LEFT JOIN profiles p ON p.wallet_address = i.wallet_address`,
		comment.ID, comment.WalletAddress, comment.Day, comment.Content, comment.CreatedAt,
	).Scan(&comment.Author.DisplayName, &comment.Author.AvatarURL)
	if err != nil {
		return core.Comment{}, mapError(err, "create comment")
	}
	return comment, nil
}

func (r *CommentRepository) ListByDay(ctx context.Context, day int) ([]core.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.wallet_address, c.dapp_day, c.content, c.created_at,
			COALESCE(p.display_name, ''), COALESCE(p.avatar_url, '')
		FROM comments c
		LEFT JOIN profiles p ON p.wallet_address = c.wallet_address
		WHERE c.dapp_day = $1
		ORDER BY c.created_at DESC`, day)
	if err != nil {
		return nil, mapError(err, "list comments")
	}

	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Comment, error) {
		var c core.Comment
		err := row.Scan(&c.ID, &c.WalletAddress, &c.Day, &c.Content, &c.CreatedAt,
			&c.Author.DisplayName, &c.Author.AvatarURL)
		c.Author.WalletAddress = c.WalletAddress
		return c, err
	})
	if err != nil {
		return nil, mapError(err, "scan comments")
	}
	return comments, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id, address string) error {
	if _, err := uuid.Parse(id); err != nil {
		return core.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1 AND wallet_address = $2`, id, address)
	if err != nil {
		return mapError(err, "delete comment")
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SubmissionRepository implements ports.SubmissionRepository
type SubmissionRepository struct {
	db DB
}

func NewSubmissionRepository(db DB) ports.SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `s.id, s.wallet_address, s.day, s.title, s.description, s.demo_url,
	COALESCE(s.github_url, ''), COALESCE(s.image_url, ''), s.status, s.created_at`

func (r *SubmissionRepository) Create(ctx context.Context, submission core.Submission) (core.Submission, error) {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO submissions (id, wallet_address, day, title, description, demo_url, github_url, image_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)`,
		submission.ID, submission.WalletAddress, submission.Day, submission.Title, submission.Description,
		submission.DemoURL, submission.GithubURL, submission.ImageURL, submission.Status, submission.CreatedAt)
	if err != nil {
		return core.Submission{}, mapError(err, "create submission")
	}
	return submission, nil
}

func scanSubmission(row scanner, s *core.Submission) error {
	return row.Scan(&s.ID, &s.WalletAddress, &s.Day, &s.Title, &s.Description, &s.DemoURL,
		&s.GithubURL, &s.ImageURL, &s.Status, &s.CreatedAt)
}

func (r *SubmissionRepository) ListByAddress(ctx context.Context, address string) ([]core.Submission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions s
		WHERE s.wallet_address = $1
		ORDER BY s.created_at DESC`, address)
	if err != nil {
		return nil, mapError(err, "list submissions")
	}

	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Submission, error) {
		var s core.Submission
		err := scanSubmission(row, &s)
		return s, err
	})
	if err != nil {
		return nil, mapError(err, "scan submissions")
	}
	return subs, nil
}

func (r *SubmissionRepository) Showcase(ctx context.Context, limit int) ([]core.ShowcaseEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+submissionColumns+`,
			COALESCE(p.display_name, ''), COALESCE(p.avatar_url, ''),
			(SELECT count(*) FROM likes l WHERE l.dapp_day = s.day),
			(SELECT count(*) FROM comments c WHERE c.dapp_day = s.day)
		FROM submissions s
		LEFT JOIN profiles p ON p.wallet_address = s.wallet_address
		WHERE s.status = $1
		ORDER BY s.created_at DESC
		LIMIT $2`, core.SubmissionStatusPublished, limit)
	if err != nil {
		return nil, mapError(err, "showcase")
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ShowcaseEntry, error) {
		var e core.ShowcaseEntry
		err := row.Scan(&e.ID, &e.WalletAddress, &e.Day, &e.Title, &e.Description, &e.DemoURL,
			&e.GithubURL, &e.ImageURL, &e.Status, &e.CreatedAt,
			&e.Author.DisplayName, &e.Author.AvatarURL, &e.LikesCount, &e.CommentsCount)
		e.Author.WalletAddress = e.WalletAddress
		return e, err
	})
	if err != nil {
		return nil, mapError(err, "scan showcase")
	}
	return entries, nil
}
