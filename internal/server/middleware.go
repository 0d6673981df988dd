package server

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxKeyOperator ctxKey = iota

func operatorAuthMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(operatorCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			sess, err := store.OperatorFromSession(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyOperator, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func operatorFrom(r *http.Request) operatorSession {
	return r.Context().Value(ctxKeyOperator).(operatorSession)
}
