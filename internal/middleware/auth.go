package middleware

import (
	"net/http"
	"strings"
	"time"

	"fintracker/internal/models"
	"fintracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ownerKey = "owner"
	userKey  = "currentUser"
)

// AuthMiddleware 校验身份令牌，把 owner 和用户镜像放进 context。
// 令牌由外部身份服务签发，这里只验证签名并同步 User 记录。
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = strings.TrimSpace(parts[1])
			}
		}

		// 2) ?token=xxx，用于导出下载这类无法自定义 Header 的场景
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user := models.User{
			ID:          claims.Owner(),
			Email:       claims.Email,
			DisplayName: claims.Name,
			LastSeenAt:  time.Now().UTC(),
		}
		updates := []string{"last_seen_at", "updated_at"}
		if user.Email != "" {
			updates = append(updates, "email")
		}
		if user.DisplayName != "" {
			updates = append(updates, "display_name")
		}
		if err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).Create(&user).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "sync user failed")
			return
		}

		c.Set(ownerKey, user.ID)
		c.Set(userKey, &user)
		c.Next()
	}
}

// Owner returns the authenticated owner id, or "" outside AuthMiddleware.
func Owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}

// CurrentUser returns the identity mirror stored by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
