package middlewares

// Context keys shared between middlewares and handlers.
const (
	CtxRequestID = "request_id"
)
