// requestid.go — middleware сквозного идентификатора запроса.
// Входящий X-Request-Id сохраняется, отсутствующий — генерируется.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader — имя заголовка идентификатора запроса.
const requestIDHeader = "X-Request-Id"

// requestIDKey — ключ контекста для идентификатора запроса.
type requestIDKey struct{}

// RequestID возвращает middleware, снабжающий каждый запрос
// идентификатором: из заголовка клиента или сгенерированным UUID.
// Идентификатор кладётся в контекст и дублируется в заголовок ответа.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext возвращает идентификатор запроса из контекста
// или пустую строку, если middleware не применялся.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
