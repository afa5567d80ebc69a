package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"

	"storefront-server/internal/infrastructure/config"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
)

// APIKeyMiddleware APIキー認証ミドルウェア
// 付与・取り上げ・課金コールバックなどゲームサーバー向けAPIを保護する
func APIKeyMiddleware(cfg *config.AdminAPIConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if !cfg.Enabled {
				logger.Warn(ctx, "Admin API is disabled", nil)
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "forbidden",
					Message: "Admin API is disabled",
				})
			}

			apiKey := c.Request().Header.Get("X-API-Key")
			if apiKey == "" {
				logger.Warn(ctx, "Missing X-API-Key header", nil)
				return unauthorized(c, "Missing X-API-Key header")
			}

			if apiKey != cfg.APIKey {
				logger.Warn(ctx, "Invalid API key", nil)
				return unauthorized(c, "Invalid API key")
			}

			// IP制限のチェック（設定されている場合）
			if len(cfg.AllowedIPs) > 0 {
				clientIP := clientAddr(c)
				if !ipAllowed(clientIP, cfg.AllowedIPs) {
					logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
						"ip": clientIP,
					})
					return c.JSON(http.StatusForbidden, ErrorResponse{
						Error:   "forbidden",
						Message: "IP address not allowed",
					})
				}
			}

			return next(c)
		}
	}
}

// clientAddr クライアントのIPアドレスを取得
// プロキシ経由の場合はX-Forwarded-Forの先頭を採用する
func clientAddr(c echo.Context) string {
	if forwardedFor := c.Request().Header.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}

	if realIP := c.Request().Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}

// ipAllowed IPアドレスが許可リストに含まれているかチェック
// 許可リストの各エントリは単一アドレスまたはCIDR表記
func ipAllowed(ip string, allowed []string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	for _, entry := range allowed {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err == nil && prefix.Contains(addr) {
				return true
			}
			continue
		}
		if allowedAddr, err := netip.ParseAddr(entry); err == nil && allowedAddr == addr {
			return true
		}
	}
	return false
}
