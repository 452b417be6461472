package service

import (
    "context"
    "fmt"

    "go.uber.org/zap"

    "github.com/d60-Lab/invitefeed/internal/cache"
    "github.com/d60-Lab/invitefeed/internal/model"
    "github.com/d60-Lab/invitefeed/internal/repository"
    "github.com/d60-Lab/invitefeed/pkg/apperror"
    "github.com/d60-Lab/invitefeed/pkg/logger"
)

// FeedService 拉模式时间线：读取关注集合，再按时间倒序合并作者的帖子
type FeedService interface {
    AssembleFeed(ctx context.Context, followerID string) ([]model.Post, error)
}

type feedService struct {
    follows repository.FollowRepository
    users   repository.UserRepository
    posts   repository.PostRepository
    cache   *cache.FollowingCache
}

// NewFeedService followingCache 可为 nil
func NewFeedService(follows repository.FollowRepository, users repository.UserRepository, posts repository.PostRepository, followingCache *cache.FollowingCache) FeedService {
    return &feedService{follows: follows, users: users, posts: posts, cache: followingCache}
}

// AssembleFeed 未关注任何人时返回 ErrNotFollowing；关注的人没有帖子时返回空列表
func (s *feedService) AssembleFeed(ctx context.Context, followerID string) ([]model.Post, error) {
    ids, err := s.followingIDs(ctx, followerID)
    if err != nil {
        return nil, apperror.Internal(fmt.Errorf("list followings: %w", err))
    }
    if len(ids) == 0 {
        return nil, ErrNotFollowing
    }

    names, err := s.users.UsernamesByIDs(ctx, ids)
    if err != nil {
        return nil, apperror.Internal(fmt.Errorf("resolve usernames: %w", err))
    }
    posts, err := s.posts.ListByUsernames(ctx, names)
    if err != nil {
        return nil, apperror.Internal(fmt.Errorf("list posts: %w", err))
    }
    return posts, nil
}

// followingIDs 先读缓存；未命中时记下版本再读库，仅在期间无 Invalidate 时写回
func (s *feedService) followingIDs(ctx context.Context, followerID string) ([]string, error) {
    var (
        ver       int64
        cacheable bool
    )
    if s.cache != nil {
        ids, ok, err := s.cache.Get(ctx, followerID)
        if err != nil {
            logger.Warn("read following cache", zap.String("user", followerID), zap.Error(err))
        } else if ok {
            return ids, nil
        }
        if v, err := s.cache.Version(ctx, followerID); err != nil {
            logger.Warn("read following cache version", zap.String("user", followerID), zap.Error(err))
        } else {
            ver, cacheable = v, true
        }
    }

    ids, err := s.follows.ListFollowingIDs(ctx, followerID)
    if err != nil {
        return nil, err
    }
    if cacheable {
        if _, err := s.cache.Set(ctx, followerID, ids, ver); err != nil {
            logger.Warn("write following cache", zap.String("user", followerID), zap.Error(err))
        }
    }
    return ids, nil
}
