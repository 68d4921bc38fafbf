package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	SetupValidator()
}

type transferRequest struct {
	Currency string `json:"currency" binding:"required,currency_code"`
	Amount   string `json:"amount" binding:"required,money_amount"`
}

func TestSetupValidator_CurrencyCode(t *testing.T) {
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req transferRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"currency":"USD","amount":"100.00"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("lowercase rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"currency":"usd","amount":"100.00"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid currency code")
	})

	t.Run("wrong length rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"currency":"USDX","amount":"100.00"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetupValidator_MoneyAmount(t *testing.T) {
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req transferRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name   string
		amount string
		ok     bool
	}{
		{"whole number", "100", true},
		{"two decimals", "100.50", true},
		{"eight decimals", "1.12345678", true},
		{"negative rejected", "-100.00", false},
		{"non-numeric rejected", "abc", false},
		{"empty rejected", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := `{"currency":"USD","amount":"` + tc.amount + `"}`
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if tc.ok {
				assert.Equal(t, http.StatusOK, w.Code, body)
			} else {
				assert.Equal(t, http.StatusBadRequest, w.Code, body)
			}
		})
	}
}

func TestHandleValidationErrors_FieldDetail(t *testing.T) {
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req transferRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "currency")
	assert.Contains(t, body, "amount")
}

func TestHandleValidationErrors_MalformedJSON(t *testing.T) {
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req transferRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListParams_EffectiveLimit(t *testing.T) {
	assert.Equal(t, 50, ListParams{}.EffectiveLimit())
	assert.Equal(t, 50, ListParams{Limit: 0}.EffectiveLimit())
	assert.Equal(t, 10, ListParams{Limit: 10}.EffectiveLimit())
	assert.Equal(t, 200, ListParams{Limit: 200}.EffectiveLimit())
}

func TestBuildMeta(t *testing.T) {
	assert.Nil(t, BuildMeta(""))

	meta := BuildMeta("cursor-123")
	require.NotNil(t, meta)
	assert.Equal(t, "cursor-123", meta.NextCursor)
}

func TestBindQuery(t *testing.T) {
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		var params ListParams
		if !BindQuery(c, &params) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"limit": params.EffectiveLimit()})
	})

	req := httptest.NewRequest(http.MethodGet, "/test?cursor=abc&limit=25", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "25")
}

func TestBindQuery_LimitOutOfRange(t *testing.T) {
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		var params ListParams
		if !BindQuery(c, &params) {
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test?limit=500", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBindURI(t *testing.T) {
	type uriParams struct {
		ID string `uri:"id" binding:"required,uuid"`
	}

	router := gin.New()
	router.GET("/test/:id", func(c *gin.Context) {
		var params uriParams
		if !BindURI(c, &params) {
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
