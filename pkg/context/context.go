// Package context carries the identity of the unit of work (an HTTP call or a consumed
// analyzed request) through handlers, services and repositories.
package context

import "context"

const (
	SourceHTTP  = "http"
	SourceKafka = "kafka"
)

type requestKey struct{}

// Request describes who asked for the work and through which ingress
type Request struct {
	ID       string
	Source   string
	UserID   string
	Method   string
	Route    string
	RemoteIP string
}

func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFrom returns the zero Request when none was attached.
func RequestFrom(ctx context.Context) Request {
	r, _ := ctx.Value(requestKey{}).(Request)
	return r
}

func GetRequestID(ctx context.Context) string {
	return RequestFrom(ctx).ID
}

// SetUserID stores the authenticated operator. It doubles as the reviewer identity
// for contact proposals.
func SetUserID(ctx context.Context, userID string) context.Context {
	r := RequestFrom(ctx)
	r.UserID = userID
	return WithRequest(ctx, r)
}

func GetUserID(ctx context.Context) string {
	return RequestFrom(ctx).UserID
}

func GetSource(ctx context.Context) string {
	return RequestFrom(ctx).Source
}
