package repository

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/d60-Lab/invitefeed/internal/model"
)

// ErrDuplicateFollow 唯一索引 (follower_id, following_id) 冲突
var ErrDuplicateFollow = errors.New("follow edge already exists")

type FollowRepository interface {
    Create(ctx context.Context, followerID, followingID string) (*model.Follow, error)
    Exists(ctx context.Context, followerID, followingID string) (bool, error)
    ListFollowingIDs(ctx context.Context, followerID string) ([]string, error)
    // WithTx 返回绑定到事务 tx 的仓储
    WithTx(tx *gorm.DB) FollowRepository
}

type followRepository struct {
    db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) WithTx(tx *gorm.DB) FollowRepository { return &followRepository{db: tx} }

// Create 插入关注边；不做幂等，重复时返回 ErrDuplicateFollow
func (r *followRepository) Create(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
    f := &model.Follow{ID: uuid.New().String(), FollowerID: followerID, FollowingID: followingID, CreatedAt: time.Now().UTC()}
    if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
        if errors.Is(err, gorm.ErrDuplicatedKey) {
            return nil, ErrDuplicateFollow
        }
        return nil, err
    }
    return f, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
    var cnt int64
    if err := r.db.WithContext(ctx).
        Model(&model.Follow{}).
        Where("follower_id = ? AND following_id = ?", followerID, followingID).
        Count(&cnt).Error; err != nil {
        return false, err
    }
    return cnt > 0, nil
}

// ListFollowingIDs 返回 followerID 关注的全部用户 ID
func (r *followRepository) ListFollowingIDs(ctx context.Context, followerID string) ([]string, error) {
    var ids []string
    err := r.db.WithContext(ctx).
        Model(&model.Follow{}).
        Where("follower_id = ?", followerID).
        Order("created_at DESC, id DESC").
        Pluck("following_id", &ids).Error
    return ids, err
}
