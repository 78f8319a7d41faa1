package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fintracker/internal/middleware"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/gin-gonic/gin"
)

// bind decodes the JSON body, answering 400 itself on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// owner returns the authenticated owner or answers 401.
func owner(c *gin.Context) (string, bool) {
	o := middleware.Owner(c)
	if o == "" {
		util.Fail(c, models.ErrUnauthorized)
		return "", false
	}
	return o, true
}

func optionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := util.ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", models.ErrValidation, key)
	}
	return n, nil
}
