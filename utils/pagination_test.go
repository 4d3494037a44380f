package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pageFromQuery(query string) Page {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return ParsePage(ctx)
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Skip: 0, Limit: DefaultPageLimit}},
		{"skip=20&limit=5", Page{Skip: 20, Limit: 5}},
		{"skip=-3&limit=0", Page{Skip: 0, Limit: DefaultPageLimit}},
		{"skip=abc&limit=xyz", Page{Skip: 0, Limit: DefaultPageLimit}},
		{"limit=1000", Page{Skip: 0, Limit: MaxPageLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, pageFromQuery(tt.query))
		})
	}
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, Page{Skip: 0, Limit: DefaultPageLimit}, NormalizePage(Page{Skip: -1}))
	assert.Equal(t, Page{Skip: 7, Limit: MaxPageLimit}, NormalizePage(Page{Skip: 7, Limit: 500}))
	assert.Equal(t, Page{Skip: 3, Limit: 4}, NormalizePage(Page{Skip: 3, Limit: 4}))
}
