package service

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/google/uuid"
    "go.uber.org/zap"
    "gorm.io/gorm"

    "github.com/d60-Lab/invitefeed/internal/auth"
    "github.com/d60-Lab/invitefeed/internal/model"
    "github.com/d60-Lab/invitefeed/internal/repository"
    "github.com/d60-Lab/invitefeed/pkg/apperror"
    "github.com/d60-Lab/invitefeed/pkg/logger"
)

// Profile 个人主页
type Profile struct {
    Username    string              `json:"username"`
    Posts       []model.Post        `json:"posts"`
    ProfileData []model.ProfileData `json:"profiledata"`
}

// UserService 注册、登录与主页查询
type UserService interface {
    Register(ctx context.Context, username, email, password string) (*model.User, error)
    Login(ctx context.Context, email, password string) (string, error)
    Profile(ctx context.Context, username string) (*Profile, error)
    // ProfileByID 令牌持有者本人的主页；账号不存在返回 ErrUserNotFound
    ProfileByID(ctx context.Context, userID string) (*Profile, error)
}

type userService struct {
    users      repository.UserRepository
    posts      repository.PostRepository
    tokens     *auth.TokenService
    bcryptCost int
    // dummyHash 用于未知邮箱时仍执行一次 bcrypt 比较，避免时间差泄露用户是否存在
    dummyHash  string
}

func NewUserService(users repository.UserRepository, posts repository.PostRepository, tokens *auth.TokenService, bcryptCost int) (UserService, error) {
    dummy, err := auth.HashPassword(uuid.NewString(), bcryptCost)
    if err != nil {
        return nil, fmt.Errorf("prepare dummy password hash: %w", err)
    }
    return &userService{users: users, posts: posts, tokens: tokens, bcryptCost: bcryptCost, dummyHash: dummy}, nil
}

// Register 重名检查不在事务内，并发竞争由唯一索引兜底
func (s *userService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
    if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
        return nil, ErrMissingFields
    }

    exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
    if err != nil {
        return nil, apperror.Internal(fmt.Errorf("check existing user: %w", err))
    }
    if exists {
        return nil, ErrDuplicateUser
    }

    hash, err := auth.HashPassword(password, s.bcryptCost)
    if err != nil {
        return nil, apperror.Internal(fmt.Errorf("hash password: %w", err))
    }

    u := &model.User{ID: uuid.New().String(), Username: username, Email: email, PasswordHash: hash}
    if err := s.users.Create(ctx, u); err != nil {
        if errors.Is(err, gorm.ErrDuplicatedKey) {
            return nil, ErrDuplicateUser
        }
        return nil, apperror.Internal(fmt.Errorf("create user: %w", err))
    }

    logger.Info("user registered", zap.String("user", u.ID), logger.Email(u.Email))
    return u, nil
}

// Login 未知邮箱与密码错误返回同一个错误
func (s *userService) Login(ctx context.Context, email, password string) (string, error) {
    if email == "" || password == "" {
        return "", ErrMissingLogin
    }

    u, err := s.users.GetByEmail(ctx, email)
    if errors.Is(err, repository.ErrNotFound) {
        _ = auth.CheckPassword(s.dummyHash, password)
        return "", ErrBadCredentials
    }
    if err != nil {
        return "", apperror.Internal(fmt.Errorf("load user: %w", err))
    }

    if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
        if errors.Is(err, auth.ErrPasswordMismatch) {
            return "", ErrBadCredentials
        }
        return "", apperror.Internal(fmt.Errorf("compare password: %w", err))
    }

    token, err := s.tokens.Issue(u)
    if err != nil {
        return "", apperror.Internal(err)
    }
    return token, nil
}

// Profile 用户不存在时返回空 posts / profiledata，而不是 404
func (s *userService) Profile(ctx context.Context, username string) (*Profile, error) {
    u, err := s.users.GetByUsername(ctx, username)
    if err != nil && !errors.Is(err, repository.ErrNotFound) {
        return nil, apperror.Internal(fmt.Errorf("load profile: %w", err))
    }
    return s.buildProfile(ctx, username, u)
}

func (s *userService) ProfileByID(ctx context.Context, userID string) (*Profile, error) {
    u, err := s.users.GetByID(ctx, userID)
    if errors.Is(err, repository.ErrNotFound) {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, apperror.Internal(fmt.Errorf("load profile: %w", err))
    }
    return s.buildProfile(ctx, u.Username, u)
}

// buildProfile u 为 nil 时 profiledata 为空
func (s *userService) buildProfile(ctx context.Context, username string, u *model.User) (*Profile, error) {
    p := &Profile{Username: username, Posts: []model.Post{}, ProfileData: []model.ProfileData{}}
    if u != nil {
        p.ProfileData = append(p.ProfileData, model.ProfileData{PfpURL: u.PfpURL, Bio: u.Bio})
    }
    posts, err := s.posts.ListByUsername(ctx, username)
    if err != nil {
        return nil, apperror.Internal(fmt.Errorf("load posts: %w", err))
    }
    p.Posts = posts
    return p, nil
}
