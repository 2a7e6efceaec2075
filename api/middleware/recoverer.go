package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/caskettrack/api/responses"
	pkgerrors "github.com/angelmondragon/caskettrack/pkg/errors"
	"github.com/angelmondragon/caskettrack/pkg/logger"
)

// Recoverer turns a handler panic into a 500 error envelope. Aborted
// handlers are re-panicked so net/http can drop the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic":  rec,
						"method": r.Method,
						"path":   r.URL.Path,
					})
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "request handler panicked"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
