package middlewares

import (
	"boxoffice/src/types"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.AbortWithError(401, err)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(401)
		return
	}

	ctx.Set("username", claims.Username)
	ctx.Set("role", claims.Role)
}

// RequireRoles gates a route group on the caller's role claim. The refund
// route only admits ADMIN and STAFF.
func RequireRoles(roles ...types.UserRole) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := types.UserRole(ctx.GetString("role"))
		for _, allowed := range roles {
			if role == allowed {
				ctx.Next()
				return
			}
		}
		log.Printf("Role %q denied for %s %s\n", role, ctx.Request.Method, ctx.Request.URL.Path)
		ctx.AbortWithStatusJSON(403, gin.H{"error": types.ErrAuth.Error()})
	}
}
