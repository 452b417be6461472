package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/invitefeed/pkg/apperror"
)

func init() { gin.SetMode(gin.TestMode) }

func run(t *testing.T, fn func(c *gin.Context)) (int, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestError_MapsKinds(t *testing.T) {
	code, body := run(t, func(c *gin.Context) {
		Error(c, apperror.Conflict(apperror.CodeSelfFollow, "Cannot follow yourself"))
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot follow yourself", body.Message)

	code, _ = run(t, func(c *gin.Context) {
		Error(c, apperror.Forbidden(apperror.CodeTokenInvalid, "Invalid token"))
	})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestError_HidesInternals(t *testing.T) {
	code, body := run(t, func(c *gin.Context) {
		Error(c, errors.New("pq: password authentication failed"))
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body.Message)
}
