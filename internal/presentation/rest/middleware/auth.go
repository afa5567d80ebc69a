package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"storefront-server/internal/infrastructure/config"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
)

// userClaims アクセストークンに含まれるクレーム
type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

var errMalformedAuthHeader = errors.New("malformed authorization header")

// bearerToken AuthorizationヘッダーからBearerトークンを取り出す
func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", errMalformedAuthHeader
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errMalformedAuthHeader
	}
	return token, nil
}

// unauthorized 401レスポンスを返す
func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}

// AuthMiddleware JWT認証ミドルウェア
// 検証済みトークンのuser_idクレームをコンテキストに設定する
func AuthMiddleware(cfg *config.JWTConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			tokenString, err := bearerToken(c)
			if err != nil {
				logger.Warn(ctx, "Missing or malformed authorization header", nil)
				return unauthorized(c, "Missing or malformed authorization header")
			}

			claims := new(userClaims)
			token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.Secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn(ctx, "Invalid token", map[string]interface{}{
					"error": err.Error(),
				})
				return unauthorized(c, "Invalid or expired token")
			}

			if claims.UserID == "" {
				logger.Warn(ctx, "Missing user_id in token claims", nil)
				return unauthorized(c, "Missing user_id in token")
			}

			c.Set("user_id", claims.UserID)

			return next(c)
		}
	}
}
