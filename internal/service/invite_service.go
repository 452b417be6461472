package service

import (
    "context"
    "errors"
    "fmt"
    "net/url"
    "time"

    "go.uber.org/zap"
    "gorm.io/gorm"

    "github.com/d60-Lab/invitefeed/internal/cache"
    "github.com/d60-Lab/invitefeed/internal/model"
    "github.com/d60-Lab/invitefeed/internal/repository"
    "github.com/d60-Lab/invitefeed/pkg/apperror"
    "github.com/d60-Lab/invitefeed/pkg/database"
    "github.com/d60-Lab/invitefeed/pkg/logger"
)

// InviteService 邀请账本：生成邀请、兑换邀请（建立关注）、查询邀请创建者
type InviteService interface {
    Generate(ctx context.Context, creatorID string) (string, error)
    Redeem(ctx context.Context, inviteID, followerID string) (*model.Follow, error)
    Lookup(ctx context.Context, inviteID string) (string, error)
}

type inviteService struct {
    db      *gorm.DB
    invites repository.InviteRepository
    follows repository.FollowRepository
    cache   *cache.FollowingCache
    baseURL string
    now     func() time.Time
}

// NewInviteService followingCache 可为 nil
func NewInviteService(db *gorm.DB, invites repository.InviteRepository, follows repository.FollowRepository, followingCache *cache.FollowingCache, baseURL string) InviteService {
    return &inviteService{db: db, invites: invites, follows: follows, cache: followingCache, baseURL: baseURL, now: time.Now}
}

func (s *inviteService) Generate(ctx context.Context, creatorID string) (string, error) {
    inv, err := s.invites.Create(ctx, creatorID)
    if err != nil {
        return "", apperror.Internal(fmt.Errorf("create invite: %w", err))
    }
    return fmt.Sprintf("%s/follow.html?follow_id=%s", s.baseURL, url.QueryEscape(inv.ID)), nil
}

// Redeem 在单个事务内：锁定邀请 -> 校验未使用 -> 校验非自关注 -> 校验未关注 -> 标记已用 -> 建立关注。
// 任一步失败整体回滚。
func (s *inviteService) Redeem(ctx context.Context, inviteID, followerID string) (*model.Follow, error) {
    var edge *model.Follow
    err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
        invites := s.invites.WithTx(tx)
        follows := s.follows.WithTx(tx)

        inv, err := invites.GetForUpdate(ctx, inviteID)
        if errors.Is(err, repository.ErrNotFound) {
            return ErrInviteNotFound
        }
        if err != nil {
            return fmt.Errorf("load invite: %w", err)
        }
        if inv.Used {
            return ErrInviteUsed
        }
        if inv.CreatorID == followerID {
            return ErrSelfFollow
        }

        exists, err := follows.Exists(ctx, followerID, inv.CreatorID)
        if err != nil {
            return fmt.Errorf("check follow: %w", err)
        }
        if exists {
            return ErrAlreadyFollowing
        }

        flipped, err := invites.MarkUsed(ctx, inv.ID, s.now().UTC())
        if err != nil {
            return fmt.Errorf("mark invite used: %w", err)
        }
        if !flipped {
            return ErrInviteUsed
        }

        edge, err = follows.Create(ctx, followerID, inv.CreatorID)
        if errors.Is(err, repository.ErrDuplicateFollow) {
            return ErrAlreadyFollowing
        }
        if err != nil {
            return fmt.Errorf("create follow: %w", err)
        }
        return nil
    })
    if err != nil {
        if apperror.KindOf(err) == apperror.KindInternal {
            return nil, apperror.Internal(fmt.Errorf("redeem invite: %w", err))
        }
        return nil, err
    }

    if s.cache != nil {
        if cerr := s.cache.Invalidate(ctx, followerID); cerr != nil {
            logger.Warn("invalidate following cache", zap.String("user", followerID), zap.Error(cerr))
        }
    }
    return edge, nil
}

func (s *inviteService) Lookup(ctx context.Context, inviteID string) (string, error) {
    name, err := s.invites.CreatorUsername(ctx, inviteID)
    if errors.Is(err, repository.ErrNotFound) {
        return "", apperror.NotFound(apperror.CodeInviteNotFound, "Invite not found")
    }
    if err != nil {
        return "", apperror.Internal(fmt.Errorf("lookup invite: %w", err))
    }
    return name, nil
}
