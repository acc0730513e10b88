package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Request{}, RequestFrom(ctx))
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequest(ctx, Request{ID: "req-1", Source: SourceKafka, Route: "/api/v1/persons"})
	ctx = SetUserID(ctx, "reviewer@agency")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "reviewer@agency", GetUserID(ctx))
	assert.Equal(t, SourceKafka, GetSource(ctx))
	assert.Equal(t, "/api/v1/persons", RequestFrom(ctx).Route)
}

func TestSetUserIDWithoutRequest(t *testing.T) {
	ctx := SetUserID(context.Background(), "u1")
	assert.Equal(t, "u1", GetUserID(ctx))
	assert.Empty(t, GetRequestID(ctx))
}
