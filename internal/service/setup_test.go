package service

import (
    "context"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
    "gorm.io/driver/sqlite"
    "gorm.io/gorm"
    "gorm.io/gorm/logger"

    "github.com/d60-Lab/invitefeed/internal/cache"
    "github.com/d60-Lab/invitefeed/internal/model"
    "github.com/d60-Lab/invitefeed/internal/repository"
    "github.com/d60-Lab/invitefeed/pkg/database"
)

type fixture struct {
    db      *gorm.DB
    users   repository.UserRepository
    posts   repository.PostRepository
    invites repository.InviteRepository
    follows repository.FollowRepository
}

func newFixture(t *testing.T) *fixture {
    t.Helper()
    db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
        Logger:         logger.Default.LogMode(logger.Silent),
        TranslateError: true,
    })
    if err != nil {
        t.Fatalf("open db: %v", err)
    }
    sqlDB, err := db.DB()
    if err != nil {
        t.Fatalf("sql db: %v", err)
    }
    // 单连接：并发事务在连接池上串行化
    sqlDB.SetMaxOpenConns(1)
    if err := database.Migrate(db); err != nil {
        t.Fatalf("migrate: %v", err)
    }
    t.Cleanup(func() { _ = sqlDB.Close() })

    return &fixture{
        db:      db,
        users:   repository.NewUserRepository(db),
        posts:   repository.NewPostRepository(db),
        invites: repository.NewInviteRepository(db),
        follows: repository.NewFollowRepository(db),
    }
}

func newTestCache(t *testing.T) (*cache.FollowingCache, *miniredis.Miniredis) {
    t.Helper()
    mr := miniredis.RunT(t)
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = client.Close() })
    return cache.NewFollowingCache(client, time.Minute), mr
}

func (f *fixture) user(t *testing.T, name string) *model.User {
    t.Helper()
    u := &model.User{ID: "id-" + name, Username: name, Email: name + "@example.com", PasswordHash: "x"}
    if err := f.users.Create(context.Background(), u); err != nil {
        t.Fatalf("seed user %s: %v", name, err)
    }
    return u
}

func (f *fixture) post(t *testing.T, id, username string, at time.Time) {
    t.Helper()
    p := &model.Post{ID: id, Username: username, Body: "body " + id, PostDate: at}
    if err := f.posts.Create(context.Background(), p); err != nil {
        t.Fatalf("seed post %s: %v", id, err)
    }
}

func (f *fixture) invite(t *testing.T, creatorID string) *model.Invite {
    t.Helper()
    inv, err := f.invites.Create(context.Background(), creatorID)
    if err != nil {
        t.Fatalf("seed invite: %v", err)
    }
    return inv
}

func (f *fixture) countFollows(t *testing.T) int64 {
    t.Helper()
    var n int64
    if err := f.db.Model(&model.Follow{}).Count(&n).Error; err != nil {
        t.Fatalf("count follows: %v", err)
    }
    return n
}
