package repository

import (
    "context"
    "errors"

    "gorm.io/gorm"

    "github.com/d60-Lab/invitefeed/internal/model"
)

type UserRepository interface {
    Create(ctx context.Context, u *model.User) error
    GetByID(ctx context.Context, id string) (*model.User, error)
    GetByEmail(ctx context.Context, email string) (*model.User, error)
    GetByUsername(ctx context.Context, username string) (*model.User, error)
    ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
    UsernamesByIDs(ctx context.Context, ids []string) ([]string, error)
}

type userRepository struct {
    db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
    return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
    return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
    return r.first(ctx, "username = ?", username)
}

func (r *userRepository) first(ctx context.Context, cond string, arg any) (*model.User, error) {
    var u model.User
    if err := r.db.WithContext(ctx).Where(cond, arg).Take(&u).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &u, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
    var cnt int64
    if err := r.db.WithContext(ctx).
        Model(&model.User{}).
        Where("username = ? OR email = ?", username, email).
        Count(&cnt).Error; err != nil {
        return false, err
    }
    return cnt > 0, nil
}

func (r *userRepository) UsernamesByIDs(ctx context.Context, ids []string) ([]string, error) {
    if len(ids) == 0 {
        return []string{}, nil
    }
    var names []string
    err := r.db.WithContext(ctx).
        Model(&model.User{}).
        Where("id IN ?", ids).
        Order("username").
        Pluck("username", &names).Error
    return names, err
}
