package main

import (
    "context"
    "fmt"
    "math"
    "os"
    "sort"
    "strconv"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/d60-Lab/invitefeed/config"
    "github.com/d60-Lab/invitefeed/internal/model"
    "github.com/d60-Lab/invitefeed/internal/repository"
    "github.com/d60-Lab/invitefeed/internal/service"
    "github.com/d60-Lab/invitefeed/pkg/apperror"
    "github.com/d60-Lab/invitefeed/pkg/database"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func envInt(key string, def int) int {
    if s := os.Getenv(key); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 { return n }
    }
    return def
}

// pct 返回 p 分位耗时
func pct(vs []time.Duration, p float64) time.Duration {
    if len(vs) == 0 { return 0 }
    xs := append([]time.Duration(nil), vs...)
    sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
    k := int(math.Ceil(p*float64(len(xs)))) - 1
    if k < 0 { k = 0 }
    if k >= len(xs) { k = len(xs) - 1 }
    return xs[k]
}

// 压测：ROUNDS 个邀请，每个邀请由 CONC 个用户同时兑换，统计每轮胜者数与延迟
func main() {
    cfg := must(config.Load())
    db := must(database.InitDB(cfg))
    defer func() { _ = database.Close(db) }()

    rounds := envInt("ROUNDS", 100)
    conc := envInt("CONC", 16)

    inviteRepo := repository.NewInviteRepository(db)
    followRepo := repository.NewFollowRepository(db)
    svc := service.NewInviteService(db, inviteRepo, followRepo, nil, cfg.BaseURL)
    ctx := context.Background()

    newUser := func() model.User {
        id := uuid.New().String()
        return model.User{ID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com", PasswordHash: "p"}
    }
    creators := make([]model.User, rounds)
    for i := range creators { creators[i] = newUser() }
    followers := make([]model.User, conc)
    for i := range followers { followers[i] = newUser() }
    if err := db.CreateInBatches(creators, 500).Error; err != nil { panic(err) }
    if err := db.CreateInBatches(followers, 500).Error; err != nil { panic(err) }

    var (
        mu       sync.Mutex
        lats     []time.Duration
        badRound int
        outcomes = map[apperror.Code]int{}
    )

    t0 := time.Now()
    for r := 0; r < rounds; r++ {
        inv := must(inviteRepo.Create(ctx, creators[r].ID))
        winners := 0
        var wg sync.WaitGroup
        start := make(chan struct{})
        for w := 0; w < conc; w++ {
            wg.Add(1)
            go func(follower string) {
                defer wg.Done()
                <-start
                st := time.Now()
                _, err := svc.Redeem(ctx, inv.ID, follower)
                d := time.Since(st)
                mu.Lock()
                defer mu.Unlock()
                lats = append(lats, d)
                if err == nil {
                    winners++
                    return
                }
                outcomes[apperror.CodeOf(err)]++
            }(followers[w].ID)
        }
        close(start)
        wg.Wait()
        if winners != 1 { badRound++ }
    }
    total := time.Since(t0)

    fmt.Printf("ROUNDS=%d, CONC=%d, driver=%s\n", rounds, conc, cfg.Database.Driver)
    fmt.Printf("Redeem total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
        total, total/time.Duration(rounds*conc), pct(lats, 0.50), pct(lats, 0.95), pct(lats, 0.99))
    fmt.Printf("Rounds without exactly one winner: %d\n", badRound)
    for code, n := range outcomes {
        fmt.Printf("  rejected %s: %d\n", code, n)
    }
    if badRound > 0 { os.Exit(1) }
}
