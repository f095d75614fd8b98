// Package httpcontext bridges fasthttp request handling and stdlib contexts.
package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/taskhub/backend/pkg/logger"
)

// Adapter derives a deadline-bound stdlib context from a fasthttp request.
// The request ID comes from the client's X-Request-ID header when present,
// is generated otherwise, and is echoed on the response so log lines and
// responses correlate.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach returns a context carrying the request ID, bounded by the adapter's
// timeout. The caller owns the cancel func.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	ctx.Response.Header.Set("X-Request-ID", reqID)
	return appLogger.ContextWithRequestID(stdCtx, reqID), cancel
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if ctx != nil {
		if id := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
