package service

import (
    "context"
    "fmt"
    "time"
    "unicode/utf8"

    "github.com/google/uuid"

    "github.com/d60-Lab/invitefeed/internal/model"
    "github.com/d60-Lab/invitefeed/internal/repository"
    "github.com/d60-Lab/invitefeed/pkg/apperror"
)

const maxPostBody = 1000

// Publisher 负责写入帖子，post_date 取服务端时间
type Publisher struct {
    posts repository.PostRepository
    now   func() time.Time
}

func NewPublisher(posts repository.PostRepository) *Publisher {
    return &Publisher{posts: posts, now: time.Now}
}

// Publish 以 username 身份发帖
func (p *Publisher) Publish(ctx context.Context, username, body string) (*model.Post, error) {
    if n := utf8.RuneCountInString(body); n == 0 || n > maxPostBody {
        return nil, ErrInvalidPostBody
    }
    now := p.now().UTC()
    post := &model.Post{ID: uuid.New().String(), Username: username, Body: body, PostDate: now, CreatedAt: now}
    if err := p.posts.Create(ctx, post); err != nil {
        return nil, apperror.Internal(fmt.Errorf("create post: %w", err))
    }
    return post, nil
}
