package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-storefront/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(err error) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Fail(ctx, zap.NewNop(), err)

	var body Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestFailMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperror.Validation("bad"), http.StatusBadRequest},
		{apperror.NotFound("missing"), http.StatusNotFound},
		{apperror.Unauthorized("who"), http.StatusUnauthorized},
		{apperror.Forbidden("no"), http.StatusForbidden},
		{apperror.Conflict("empty"), http.StatusConflict},
		{fmt.Errorf("wrapped: %w", apperror.NotFound("missing")), http.StatusNotFound},
	}
	for _, tc := range cases {
		w, body := serve(tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.status, body.Code)
	}
}

func TestFailValidationFields(t *testing.T) {
	w, body := serve(apperror.ValidationField("quantity", "only 3 units available"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid input", body.Msg)
	assert.Equal(t, map[string]string{"quantity": "only 3 units available"}, body.Fields)
}

func TestFailHidesInternalErrors(t *testing.T) {
	w, body := serve(errors.New("dial tcp 10.0.0.3:3306: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", body.Msg)
}
