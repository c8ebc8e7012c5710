package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="exam_science_class_x.json"`,
		contentDisposition("exam_science_class_x.json"))
	assert.Equal(t, `attachment; filename="exam_______class_x.pdf"; filename*=UTF-8''exam_%E0%A4%B9%E0%A4%BF%E0%A4%82%E0%A4%A6%E0%A5%80_class_x.pdf`,
		contentDisposition("exam_हिंदी_class_x.pdf"))
}

func TestEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/fail", func(c *gin.Context) {
		FailWithDetail(c, http.StatusBadRequest, ErrValidation, "sections: required")
	})
	r.GET("/list", func(c *gin.Context) {
		SuccessWithPagination(c, http.StatusOK, []int{1}, NewPagination(2, 20, 41))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrValidation, body.Error.Code)
	assert.Equal(t, "sections: required", body.Error.Fields["detail"])
	assert.NotEmpty(t, body.Metadata.RequestID)
	assert.Equal(t, body.Metadata.RequestID, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/list", nil))
	body = Response{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 3, body.Pagination.TotalPages)
}
