package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/model"
)

const bearerScheme = "bearer"

// TokenVerifier はセッショントークンの検証に必要なインターフェース。
// auth.TokenServiceが満たす。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みユーザーIDをリクエストコンテキストに注入するミドルウェアを返す。
// 失敗理由にかかわらず同一の401 UNAUTHENTICATEDを返し、後続ハンドラーは呼ばない。
func NewAuthMiddleware(verifier TokenVerifier, mc metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, mc, metrics.ReasonMissing)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				reject(w, r, mc, rejectionReason(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken は "Bearer <token>" 形式のヘッダー値からトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return metrics.ReasonExpired
	case errors.Is(err, auth.ErrTokenInvalidSignature):
		return metrics.ReasonSignature
	default:
		return metrics.ReasonMalformed
	}
}

func reject(w http.ResponseWriter, r *http.Request, mc metrics.MetricsCollector, reason string) {
	mc.RecordTokenRejected(reason)
	slog.Warn("authentication rejected",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
}
