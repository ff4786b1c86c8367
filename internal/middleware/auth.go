package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/composite/api/transport"
)

// Scopes required by the composite API.
const (
	ScopeRead  = "product:read"
	ScopeWrite = "product:write"
)

// Claims is the accepted token payload. Scope follows the OAuth2 convention
// of a single space-delimited string.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Scopes splits the scope claim.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// HasScope reports whether the token grants scope.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes() {
		if s == scope {
			return true
		}
	}
	return false
}

// RequiredScope maps an HTTP method to the scope it needs.
func RequiredScope(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return ScopeRead
	default:
		return ScopeWrite
	}
}

// JWTAuth validates HMAC bearer tokens and enforces the method scope. An
// empty secret disables the check.
func JWTAuth(secret, issuer string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if secret == "" {
		logger.Warn("JWT_SECRET is empty, composite API is not protected")
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				logger.Warn("no JWT based authorization provided", zap.ByteString("path", ctx.Path()))
				deny(ctx, http.StatusUnauthorized, "Full authentication is required to access this resource")
				return
			}

			claims := &Claims{}
			token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err == nil && issuer != "" && !claims.VerifyIssuer(issuer, true) {
				err = errors.New("unexpected issuer")
			}
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				deny(ctx, http.StatusUnauthorized, "Invalid bearer token")
				return
			}

			logger.Debug("authorization info",
				zap.String("subject", claims.Subject),
				zap.Strings("scopes", claims.Scopes()),
				zap.Strings("audience", claims.Audience))

			required := RequiredScope(string(ctx.Method()))
			if !claims.HasScope(required) {
				deny(ctx, http.StatusForbidden, "Missing scope "+required)
				return
			}
			ctx.Request.Header.Set("X-User-ID", claims.Subject)

			next(ctx)
		}
	}
}

func deny(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(transport.NewErrorInfo(string(ctx.Path()), status, message))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
