package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		call   func(c *gin.Context)
		status int
		code   string
		msg    string
	}{
		{"unauthorized default", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required"},
		{"not found", func(c *gin.Context) { NotFound(c, "assignment not found") }, http.StatusNotFound, ErrCodeNotFound, "assignment not found"},
		{"level table", func(c *gin.Context) { BadRequestWithCode(c, ErrCodeInvalidLevels, "bad") }, http.StatusBadRequest, ErrCodeInvalidLevels, "bad"},
		{"too large", func(c *gin.Context) { PayloadTooLarge(c, "") }, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Payload too large"},
		{"upload", func(c *gin.Context) { BadGateway(c, ErrCodeUploadFailed, "") }, http.StatusBadGateway, ErrCodeUploadFailed, "Upstream request failed"},
		{"persistence", func(c *gin.Context) { PersistenceFailure(c, "") }, http.StatusInternalServerError, ErrCodePersistenceFailure, "Failed to save changes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tc.call(c)

			assert.True(t, c.IsAborted())
			assert.Equal(t, tc.status, w.Code)
			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.Equal(t, tc.msg, body.Message)
		})
	}
}
