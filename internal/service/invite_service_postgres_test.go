package service

import (
    "context"
    "os"
    "sync"
    "testing"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/driver/postgres"
    "gorm.io/gorm"
    "gorm.io/gorm/logger"

    "github.com/d60-Lab/invitefeed/internal/model"
    "github.com/d60-Lab/invitefeed/internal/repository"
    "github.com/d60-Lab/invitefeed/pkg/database"
)

// 设置 INVITEFEED_TEST_POSTGRES_DSN 时运行，例如
// host=localhost user=postgres password=postgres dbname=invitefeed_test sslmode=disable
func openPostgres(t *testing.T, conns int) *gorm.DB {
    t.Helper()
    dsn := os.Getenv("INVITEFEED_TEST_POSTGRES_DSN")
    if dsn == "" {
        t.Skip("INVITEFEED_TEST_POSTGRES_DSN not set")
    }
    db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
        Logger:         logger.Default.LogMode(logger.Silent),
        TranslateError: true,
    })
    require.NoError(t, err)
    sqlDB, err := db.DB()
    require.NoError(t, err)
    sqlDB.SetMaxOpenConns(conns)
    require.NoError(t, database.Migrate(db))
    t.Cleanup(func() { _ = sqlDB.Close() })
    return db
}

func TestRedeem_PostgresContention(t *testing.T) {
    const n = 16
    db := openPostgres(t, n)
    ctx := context.Background()

    newUser := func() model.User {
        id := uuid.NewString()
        return model.User{ID: id, Username: "pg-" + id[:12], Email: id + "@example.com", PasswordHash: "x"}
    }
    creator := newUser()
    users := []model.User{creator}
    followers := make([]string, n)
    for i := range followers {
        u := newUser()
        users = append(users, u)
        followers[i] = u.ID
    }
    require.NoError(t, db.Create(&users).Error)

    invites := repository.NewInviteRepository(db)
    inv, err := invites.Create(ctx, creator.ID)
    require.NoError(t, err)

    t.Cleanup(func() {
        db.Where("following_id = ?", creator.ID).Delete(&model.Follow{})
        db.Where("id = ?", inv.ID).Delete(&model.Invite{})
        ids := append([]string{creator.ID}, followers...)
        db.Where("id IN ?", ids).Delete(&model.User{})
    })

    svc := NewInviteService(db, invites, repository.NewFollowRepository(db), nil, "https://app.example.com")

    var wg sync.WaitGroup
    errs := make([]error, n)
    start := make(chan struct{})
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            <-start
            _, errs[i] = svc.Redeem(ctx, inv.ID, followers[i])
        }(i)
    }
    close(start)
    wg.Wait()

    wins := 0
    for _, err := range errs {
        if err == nil {
            wins++
            continue
        }
        assert.ErrorIs(t, err, ErrInviteUsed)
    }
    assert.Equal(t, 1, wins)

    var edges int64
    require.NoError(t, db.Model(&model.Follow{}).Where("following_id = ?", creator.ID).Count(&edges).Error)
    assert.EqualValues(t, 1, edges)

    got, err := invites.GetByID(ctx, inv.ID)
    require.NoError(t, err)
    assert.True(t, got.Used)
}
