package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type runRequest struct {
	EntityType string `json:"entity_type" binding:"required,entitytype"`
	Direction  string `json:"direction" binding:"required,syncdirection"`
}

func newValidationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	router := gin.New()
	router.POST("/runs", func(c *gin.Context) {
		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestSetupValidator_EnumTags(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid order sync", `{"entity_type":"ORDER","direction":"A_TO_B"}`, http.StatusOK},
		{"valid inventory sync", `{"entity_type":"INVENTORY","direction":"B_TO_A"}`, http.StatusOK},
		{"unknown entity type", `{"entity_type":"BOGUS","direction":"A_TO_B"}`, http.StatusBadRequest},
		{"unknown direction", `{"entity_type":"ORDER","direction":"SIDEWAYS"}`, http.StatusBadRequest},
		{"missing fields", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/runs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSetupValidator_JSONFieldNamesInErrors(t *testing.T) {
	router := newValidationRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"direction":"A_TO_B"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "entity_type")
}
