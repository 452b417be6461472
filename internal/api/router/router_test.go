package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/invitefeed/internal/api/handler"
	"github.com/d60-Lab/invitefeed/internal/auth"
	"github.com/d60-Lab/invitefeed/internal/model"
	"github.com/d60-Lab/invitefeed/internal/repository"
	"github.com/d60-Lab/invitefeed/internal/service"
	"github.com/d60-Lab/invitefeed/pkg/database"
)

const testSecret = "router-test-secret"

type testApp struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newTestApp(t *testing.T, opts Options) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	invites := repository.NewInviteRepository(db)
	follows := repository.NewFollowRepository(db)
	tokens := auth.NewTokenService(testSecret, time.Hour, "test")

	userService, err := service.NewUserService(users, posts, tokens, 4)
	require.NoError(t, err)
	h := handler.New(
		userService,
		service.NewInviteService(db, invites, follows, nil, "http://app.test"),
		service.NewFeedService(follows, users, posts, nil),
		service.NewPublisher(posts),
	)
	engine, err := Setup(h, tokens, opts)
	require.NoError(t, err)
	return &testApp{engine: engine, db: db}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.doFrom(t, "", method, path, token, body)
}

// doFrom 附带 X-Forwarded-For 头（为空则不设置）
func (a *testApp) doFrom(t *testing.T, forwardedFor, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// signup 注册并登录，返回 token
func (a *testApp) signup(t *testing.T, username string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/register", "", gin.H{
		"username": username, "email": username + "@example.com", "password": "pw-" + username,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/login", "", gin.H{
		"email": username + "@example.com", "password": "pw-" + username,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

func (a *testApp) inviteID(t *testing.T, token string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/invites/generate", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	link, err := url.Parse(decode(t, w)["invite_link"].(string))
	require.NoError(t, err)
	assert.Equal(t, "/follow.html", link.Path)
	id := link.Query().Get("follow_id")
	require.NotEmpty(t, id)
	return id
}

func TestFlow_RegisterInviteRedeemFeed(t *testing.T) {
	app := newTestApp(t, Options{})
	alice := app.signup(t, "alice")
	bob := app.signup(t, "bob")

	w := app.do(t, http.MethodPost, "/api/posts", alice, gin.H{"body": "hello from alice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/feed", bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "You are not following anyone.", decode(t, w)["message"])

	id := app.inviteID(t, alice)

	w = app.do(t, http.MethodGet, "/api/invites/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])

	w = app.do(t, http.MethodPost, "/api/invites/follow/"+id, bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully followed user", decode(t, w)["message"])

	w = app.do(t, http.MethodGet, "/api/feed", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode(t, w)["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello from alice", posts[0].(map[string]any)["body"])
	assert.Equal(t, "alice", posts[0].(map[string]any)["username"])
}

func TestRedeem_Rejections(t *testing.T) {
	app := newTestApp(t, Options{})
	alice := app.signup(t, "alice")
	bob := app.signup(t, "bob")
	carol := app.signup(t, "carol")

	w := app.do(t, http.MethodPost, "/api/invites/follow/does-not-exist", bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid invite", decode(t, w)["message"])

	own := app.inviteID(t, alice)
	w = app.do(t, http.MethodPost, "/api/invites/follow/"+own, alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot follow yourself", decode(t, w)["message"])

	id := app.inviteID(t, alice)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/invites/follow/"+id, bob, nil).Code)

	w = app.do(t, http.MethodPost, "/api/invites/follow/"+id, carol, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invite already used", decode(t, w)["message"])

	again := app.inviteID(t, alice)
	w = app.do(t, http.MethodPost, "/api/invites/follow/"+again, bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Already following this user", decode(t, w)["message"])

	var inv model.Invite
	require.NoError(t, app.db.First(&inv, "id = ?", again).Error)
	assert.False(t, inv.Used)
}

func TestGetInvite_NotFound(t *testing.T) {
	app := newTestApp(t, Options{})
	w := app.do(t, http.MethodGet, "/api/invites/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	app := newTestApp(t, Options{})

	w := app.do(t, http.MethodPost, "/register", "", gin.H{"username": "dave", "email": "dave@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "All fields are required.", decode(t, w)["message"])

	w = app.do(t, http.MethodPost, "/register", "", gin.H{"username": "da ve", "email": "dave@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.signup(t, "dave")
	w = app.do(t, http.MethodPost, "/register", "", gin.H{"username": "dave", "email": "other@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username or email already exists.", decode(t, w)["message"])
}

func TestLogin_BadCredentials(t *testing.T) {
	app := newTestApp(t, Options{})
	app.signup(t, "erin")

	w := app.do(t, http.MethodPost, "/login", "", gin.H{"email": "erin@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["message"])

	w = app.do(t, http.MethodPost, "/login", "", gin.H{"email": "nobody@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["message"])
}

func TestProtectedRoutes_TokenChecks(t *testing.T) {
	app := newTestApp(t, Options{})
	app.signup(t, "frank")

	var u model.User
	require.NoError(t, app.db.First(&u, "username = ?", "frank").Error)
	expired, err := auth.NewTokenService(testSecret, -time.Minute, "test").Issue(&u)
	require.NoError(t, err)
	forged, err := auth.NewTokenService("other-secret", time.Hour, "test").Issue(&u)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/profile"},
		{http.MethodGet, "/profile/frank"},
		{http.MethodPost, "/api/invites/generate"},
		{http.MethodPost, "/api/invites/follow/x"},
		{http.MethodGet, "/api/feed"},
		{http.MethodPost, "/api/posts"},
	}
	for _, r := range routes {
		w := app.do(t, r.method, r.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s without token", r.method, r.path)

		w = app.do(t, r.method, r.path, expired, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s expired", r.method, r.path)

		w = app.do(t, r.method, r.path, forged, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s forged", r.method, r.path)
	}
}

func TestProfile_AnyValidTokenCanReadOthers(t *testing.T) {
	app := newTestApp(t, Options{})
	grace := app.signup(t, "grace")
	heidi := app.signup(t, "heidi")
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/posts", grace, gin.H{"body": "g1"}).Code)

	w := app.do(t, http.MethodGet, "/profile/grace", heidi, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "grace", body["username"])
	assert.Len(t, body["posts"], 1)
	assert.Len(t, body["profiledata"], 1)

	w = app.do(t, http.MethodGet, "/profile", heidi, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "heidi", decode(t, w)["username"])

	require.NoError(t, app.db.Where("username = ?", "grace").Delete(&model.User{}).Error)
	w = app.do(t, http.MethodGet, "/profile", grace, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "token outlives its account")

	w = app.do(t, http.MethodGet, "/profile/nobody", heidi, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Empty(t, body["posts"])
	assert.Empty(t, body["profiledata"])
}

func TestRateLimit_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t, Options{RateLimit: 0.001, RateBurst: 1})

	w := app.do(t, http.MethodPost, "/login", "", gin.H{"email": "a@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/login", "", gin.H{"email": "a@example.com", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 其他路由不受限
	w = app.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	app := newTestApp(t, Options{RateLimit: 0.001, RateBurst: 1})
	login := gin.H{"email": "a@example.com", "password": "x"}

	w := app.doFrom(t, "203.0.113.1", http.MethodPost, "/login", "", login)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 伪造不同的转发地址不能绕过限流
	w = app.doFrom(t, "203.0.113.2", http.MethodPost, "/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	// httptest 请求的对端地址为 192.0.2.1
	app := newTestApp(t, Options{RateLimit: 0.001, RateBurst: 1, TrustedProxies: []string{"192.0.2.1"}})
	login := gin.H{"email": "a@example.com", "password": "x"}

	assert.Equal(t, http.StatusUnauthorized, app.doFrom(t, "203.0.113.1", http.MethodPost, "/login", "", login).Code)
	assert.Equal(t, http.StatusUnauthorized, app.doFrom(t, "203.0.113.2", http.MethodPost, "/login", "", login).Code)
	assert.Equal(t, http.StatusTooManyRequests, app.doFrom(t, "203.0.113.1", http.MethodPost, "/login", "", login).Code)
}

func TestSetup_RejectsBadTrustedProxy(t *testing.T) {
	_, err := Setup(nil, nil, Options{TrustedProxies: []string{"not-an-ip"}})
	assert.Error(t, err)
}

func TestOptionalMiddleware(t *testing.T) {
	app := newTestApp(t, Options{EnableGzip: true, EnableSwagger: true})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	w = app.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/invites/follow/{inviteId}")

	plain := newTestApp(t, Options{})
	w = plain.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

var pathParam = regexp.MustCompile(`:(\w+)`)

// 路由表与 swagger 文档必须一致
func TestSwaggerDocMatchesRoutes(t *testing.T) {
	app := newTestApp(t, Options{EnableSwagger: true})

	raw, err := swag.ReadDoc("swagger")
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	routes := map[string]bool{}
	for _, r := range app.engine.Routes() {
		if r.Path == "/healthz" || strings.HasPrefix(r.Path, "/swagger/") {
			continue
		}
		key := strings.ToLower(r.Method) + " " + pathParam.ReplaceAllString(r.Path, "{$1}")
		routes[key] = true
	}

	documented := map[string]bool{}
	for path, ops := range doc.Paths {
		for method := range ops {
			documented[method+" "+path] = true
		}
	}
	assert.Equal(t, routes, documented)
}
