package middleware

import (
	"fmt"

	"reviewhub/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts a server span per request and hands it to handlers
// through the user context. The span is renamed to the matched route once
// routing is done, so /api/reviews/7 and /api/reviews/9 share one span name.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.client_ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		if sc := span.SpanContext(); sc.IsValid() {
			c.Set("X-Trace-ID", sc.TraceID().String())
		}

		c.SetUserContext(ctx)
		err := c.Next()

		route := c.Route().Path
		status := responseStatus(c, err)
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		for _, name := range c.Route().Params {
			if v := c.Params(name); v != "" {
				span.SetAttributes(attribute.String("http.route.param."+name, v))
			}
		}
		if userID := UserIDFrom(c); userID != "" {
			span.SetAttributes(attribute.String("user.id", userID))
		}

		// 4xx is the client's problem and leaves the span status unset.
		if status >= fiber.StatusInternalServerError {
			if err != nil {
				span.RecordError(err)
			}
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		return err
	}
}
