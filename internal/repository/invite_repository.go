package repository

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"
    "gorm.io/gorm/clause"

    "github.com/d60-Lab/invitefeed/internal/model"
)

type InviteRepository interface {
    Create(ctx context.Context, creatorID string) (*model.Invite, error)
    GetByID(ctx context.Context, inviteID string) (*model.Invite, error)
    // GetForUpdate 在事务内对邀请行加行锁（SELECT ... FOR UPDATE）
    GetForUpdate(ctx context.Context, inviteID string) (*model.Invite, error)
    // MarkUsed 条件更新 used=false -> true，返回是否由本次调用翻转
    MarkUsed(ctx context.Context, inviteID string, at time.Time) (bool, error)
    CreatorUsername(ctx context.Context, inviteID string) (string, error)
    WithTx(tx *gorm.DB) InviteRepository
}

type inviteRepository struct {
    db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) InviteRepository { return &inviteRepository{db: db} }

func (r *inviteRepository) WithTx(tx *gorm.DB) InviteRepository { return &inviteRepository{db: tx} }

func (r *inviteRepository) Create(ctx context.Context, creatorID string) (*model.Invite, error) {
    inv := &model.Invite{ID: uuid.New().String(), CreatorID: creatorID, CreatedAt: time.Now().UTC()}
    if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
        return nil, err
    }
    return inv, nil
}

func (r *inviteRepository) GetByID(ctx context.Context, inviteID string) (*model.Invite, error) {
    return r.first(r.db.WithContext(ctx), inviteID)
}

func (r *inviteRepository) GetForUpdate(ctx context.Context, inviteID string) (*model.Invite, error) {
    // sqlite 方言会忽略 Locking 子句，此时由 MarkUsed 的条件更新兜底
    return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), inviteID)
}

func (r *inviteRepository) first(q *gorm.DB, inviteID string) (*model.Invite, error) {
    var inv model.Invite
    if err := q.Where("id = ?", inviteID).Take(&inv).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &inv, nil
}

func (r *inviteRepository) MarkUsed(ctx context.Context, inviteID string, at time.Time) (bool, error) {
    res := r.db.WithContext(ctx).
        Model(&model.Invite{}).
        Where("id = ? AND used = ?", inviteID, false).
        Updates(map[string]any{"used": true, "used_at": at})
    if res.Error != nil {
        return false, res.Error
    }
    return res.RowsAffected == 1, nil
}

func (r *inviteRepository) CreatorUsername(ctx context.Context, inviteID string) (string, error) {
    var names []string
    err := r.db.WithContext(ctx).
        Table("users").
        Joins("JOIN invites ON invites.creator_id = users.id").
        Where("invites.id = ?", inviteID).
        Limit(1).
        Pluck("users.username", &names).Error
    if err != nil {
        return "", err
    }
    if len(names) == 0 {
        return "", ErrNotFound
    }
    return names[0], nil
}
