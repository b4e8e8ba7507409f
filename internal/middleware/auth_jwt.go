package middleware

import (
	"net/http"

	"menuapi/internal/identity"
	"menuapi/internal/infra/token"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxClaimsKey       = "jwt_claims"    // *token.Claims
	CtxUserIDKey       = "user_id"       // int64
	CtxTokenVersionKey = "token_version" // int
)

// accessトークンを検証する約束
type AccessTokenParser interface {
	ParseAccess(raw string) (*token.Claims, error)
}

// bearerAuth用のJWT検証ミドルウェア。
// 成功したらrequestのcontextにidentityを入れる。
func AuthJWT(parser AccessTokenParser) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  CtxClaimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			return parser.ParseAccess(raw)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(CtxClaimsKey).(*token.Claims)
			if !ok {
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				return
			}

			c.Set(CtxUserIDKey, userID)
			c.Set(CtxTokenVersionKey, claims.TokenVersion)

			ctx := identity.WithIdentity(c.Request().Context(), identity.Identity{
				UserID:       userID,
				Username:     claims.Username,
				TokenVersion: claims.TokenVersion,
			})
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("authentication credentials were not provided"))
			}
			return c.JSON(http.StatusUnauthorized, errorJSON("given token not valid for any token type"))
		},
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
