package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/ports"
)

// LikeRepository implements ports.LikeRepository in memory
type LikeRepository struct {
	db *Database
}

func NewLikeRepository(db *Database) ports.LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Remove(ctx context.Context, address string, day int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := likeKey{address: address, day: day}
	if _, ok := r.db.likes[key]; !ok {
		return false, nil
	}
	delete(r.db.likes, key)
	return true, nil
}

func (r *LikeRepository) Add(ctx context.Context, like core.Like) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := likeKey{address: like.WalletAddress, day: like.Day}
	if _, ok := r.db.likes[key]; ok {
		return nil
	}
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}
	r.db.likes[key] = like
	return nil
}

func (r *LikeRepository) Exists(ctx context.Context, address string, day int) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.likes[likeKey{address: address, day: day}]
	return ok, nil
}

func (r *LikeRepository) CountByDay(ctx context.Context, day int) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.db.countLikesLocked(day), nil
}

func (db *Database) countLikesLocked(day int) int {
	n := 0
	for k := range db.likes {
		if k.day == day {
			n++
		}
	}
	return n
}

// CommentRepository implements ports.CommentRepository in memory
type CommentRepository struct {
	db *Database
}

func NewCommentRepository(db *Database) ports.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment core.Comment) (core.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	r.db.comments = append(r.db.comments, comment)

	comment.Author = r.db.author(comment.WalletAddress)
	return comment, nil
}

func (r *CommentRepository) ListByDay(ctx context.Context, day int) ([]core.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]core.Comment, 0)
	for _, c := range r.db.comments {
		if c.Day != day {
			continue
		}
		c.Author = r.db.author(c.WalletAddress)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id, address string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, c := range r.db.comments {
		if c.ID == id && c.WalletAddress == address {
			r.db.comments = append(r.db.comments[:i], r.db.comments[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (db *Database) countCommentsLocked(day int) int {
	n := 0
	for _, c := range db.comments {
		if c.Day == day {
			n++
		}
	}
	return n
}

// SubmissionRepository implements ports.SubmissionRepository in memory
type SubmissionRepository struct {
	db *Database
}

func NewSubmissionRepository(db *Database) ports.SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, submission core.Submission) (core.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, s := range r.db.submissions {
		if s.WalletAddress == submission.WalletAddress && s.Day == submission.Day {
			return core.Submission{}, core.ErrAlreadyExists
		}
	}
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now().UTC()
	}
	r.db.submissions = append(r.db.submissions, submission)
	return submission, nil
}

func (r *SubmissionRepository) ListByAddress(ctx context.Context, address string) ([]core.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]core.Submission, 0)
	for _, s := range r.db.submissions {
		if s.WalletAddress == address {
			out = append(out, s)
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *SubmissionRepository) Showcase(ctx context.Context, limit int) ([]core.ShowcaseEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	subs := make([]core.Submission, 0, len(r.db.submissions))
	for _, s := range r.db.submissions {
		if s.Status == core.SubmissionStatusPublished {
			subs = append(subs, s)
		}
	}
	newestFirst(subs)
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}

	out := make([]core.ShowcaseEntry, 0, len(subs))
	for _, s := range subs {
		out = append(out, core.ShowcaseEntry{
			Submission:    s,
			Author:        r.db.author(s.WalletAddress),
			LikesCount:    r.db.countLikesLocked(s.Day),
			CommentsCount: r.db.countCommentsLocked(s.Day),
		})
	}
	return out, nil
}

func newestFirst(subs []core.Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
}
