package repository

import (
    "context"

    "gorm.io/gorm"

    "github.com/d60-Lab/invitefeed/internal/model"
)

type PostRepository interface {
    Create(ctx context.Context, p *model.Post) error
    ListByUsername(ctx context.Context, username string) ([]model.Post, error)
    // ListByUsernames 按 post_date 倒序，相同时间按 id 倒序，保证结果稳定
    ListByUsernames(ctx context.Context, usernames []string) ([]model.Post, error)
}

type postRepository struct {
    db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
    return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepository) ListByUsername(ctx context.Context, username string) ([]model.Post, error) {
    return r.ListByUsernames(ctx, []string{username})
}

func (r *postRepository) ListByUsernames(ctx context.Context, usernames []string) ([]model.Post, error) {
    res := []model.Post{}
    if len(usernames) == 0 {
        return res, nil
    }
    err := r.db.WithContext(ctx).
        Where("username IN ?", usernames).
        Order("post_date DESC, id DESC").
        Find(&res).Error
    return res, err
}
