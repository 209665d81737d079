package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"

	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Caller is the identity resolved by the upstream gateway. This service trusts it.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsModerator() bool {
	return c.Role == RoleModerator || c.Role == RoleAdmin
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// GetCaller reads the caller put on the context by middleware, falling back to
// incoming gRPC metadata.
func GetCaller(ctx context.Context) Caller {
	if c, ok := ctx.Value(callerKey{}).(Caller); ok {
		return c
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Caller{}
	}
	c := Caller{}
	if v := md.Get(strings.ToLower(HeaderUserID)); len(v) > 0 {
		c.UserID = v[0]
	}
	if v := md.Get(strings.ToLower(HeaderUserRole)); len(v) > 0 {
		c.Role = NormalizeRole(v[0])
	}
	return c
}

func GetUserID(ctx context.Context) string {
	return GetCaller(ctx).UserID
}

func NormalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case RoleModerator, RoleAdmin:
		return r
	}
	return RoleUser
}
