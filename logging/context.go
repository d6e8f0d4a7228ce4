package logging

import (
	"context"

	"go.viam.com/utils"
)

type debugKeyType struct{}

// EnableDebugMode marks ctx for tracing: every statement logged with it is written whatever the logger's
// level and is tagged with key. An empty key is replaced by a random one, so concurrent plans can be told
// apart in the output.
func EnableDebugMode(ctx context.Context, key string) context.Context {
	if key == "" {
		key = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, debugKeyType{}, key)
}

func debugKey(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	key, ok := ctx.Value(debugKeyType{}).(string)
	return key, ok
}
