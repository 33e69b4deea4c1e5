package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/worklens/worklens/server/database"
)

func identityRouter(handler gin.HandlerFunc, admin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api", identityMiddleware())
	if admin {
		g.GET("/probe", requireAdmin(), handler)
	} else {
		g.GET("/probe", handler)
	}
	return r
}

func probeRequest(userID, companyID, role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if companyID != "" {
		req.Header.Set("X-Company-ID", companyID)
	}
	if role != "" {
		req.Header.Set("X-Role", role)
	}
	return req
}

func TestIdentityMiddleware(t *testing.T) {
	var seen Identity
	r := identityRouter(func(c *gin.Context) {
		seen = identityFrom(c)
		c.Status(http.StatusOK)
	}, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, probeRequest("u1", "c1", "employee"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Identity{UserID: "u1", CompanyID: "c1", Role: "employee"}, seen)
	assert.False(t, seen.IsAdmin())
}

func TestIdentityMiddlewareMissingHeaders(t *testing.T) {
	r := identityRouter(func(c *gin.Context) {
		t.Fatal("handler must not run")
	}, false)

	for _, req := range []*http.Request{
		probeRequest("", "c1", ""),
		probeRequest("u1", "", ""),
		probeRequest("", "", ""),
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	r := identityRouter(func(c *gin.Context) {
		c.Status(http.StatusOK)
	}, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, probeRequest("u1", "c1", "employee"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, probeRequest("u1", "c1", "admin"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRespondStoreError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		code int
	}{
		{database.ErrNotFound, http.StatusNotFound},
		{database.ErrOwnership, http.StatusForbidden},
		{database.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: bad time of day", database.ErrValidation), http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondStoreError(c, tt.err, "failed")
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}
