package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is an offset window over a newest-first listing.
type Page struct {
	Skip  int
	Limit int
}

// ParsePage reads skip and limit from the query string.
// Invalid values fall back to the defaults; limit is capped at MaxPageLimit.
func ParsePage(ctx *gin.Context) Page {
	skip, err := strconv.Atoi(ctx.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))
	if err != nil || limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Skip: skip, Limit: limit}
}

// NormalizePage applies the same bounds to a page built in code.
func NormalizePage(p Page) Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
