// Package kv wires go-redis/v9 in as a natives module: a thin wrapper
// over a single *redis.Client exposed to script code through the same
// dispatch-on-verb callable shape natives/sql uses.
package kv

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/asteria-lang/asteria/internal/function"
	"github.com/asteria-lang/asteria/internal/global"
	"github.com/asteria-lang/asteria/internal/value"
)

// Handle wraps a redis client as a callable value. The client connects
// lazily on its first command; kv_open does not contact the server.
type Handle struct {
	client *redis.Client
}

func (h *Handle) Describe() string                                    { return "kv.Handle" }
func (h *Handle) EnumerateVariables(visit func(*value.Variable) bool) {}
func (h *Handle) Invoke(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	if len(args) == 0 {
		return value.Reference{}, fmt.Errorf("kv handle requires a verb argument")
	}
	verbVal, err := args[0].Read()
	if err != nil {
		return value.Reference{}, err
	}
	verb, _ := verbVal.AsString()
	ctx := context.Background()
	switch verb {
	case "get":
		key, err := stringArg(args, 1)
		if err != nil {
			return value.Reference{}, err
		}
		s, err := h.client.Get(ctx, key).Result()
		if err == redis.Nil {
			return value.NewTemporary(value.Null()), nil
		}
		if err != nil {
			return value.Reference{}, fmt.Errorf("kv_get: %w", err)
		}
		return value.NewTemporary(value.FromString(s)), nil

	case "set":
		key, err := stringArg(args, 1)
		if err != nil {
			return value.Reference{}, err
		}
		valStr, err := stringArg(args, 2)
		if err != nil {
			return value.Reference{}, err
		}
		if err := h.client.Set(ctx, key, valStr, 0).Err(); err != nil {
			return value.Reference{}, fmt.Errorf("kv_set: %w", err)
		}
		return value.NewTemporary(value.FromBool(true)), nil

	case "del":
		key, err := stringArg(args, 1)
		if err != nil {
			return value.Reference{}, err
		}
		n, err := h.client.Del(ctx, key).Result()
		if err != nil {
			return value.Reference{}, fmt.Errorf("kv_del: %w", err)
		}
		return value.NewTemporary(value.FromInt(n)), nil

	default:
		return value.Reference{}, fmt.Errorf("unknown kv verb %q", verb)
	}
}

func stringArg(args []value.Reference, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	v, err := args[i].Read()
	if err != nil {
		return "", err
	}
	s, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("argument %d must be a string, got %s", i, v.Kind())
	}
	return s, nil
}

// Register wires `kv_open(addr)` into g's root scope; get/set/del are
// reached by calling the returned handle.
func Register(g *global.Context) {
	g.Define("kv_open", value.FromFunction(function.NewNative("kv_open", openFunc)))
}

func openFunc(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	addr, err := stringArg(args, 0)
	if err != nil {
		return value.Reference{}, err
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return value.NewTemporary(value.FromFunction(&Handle{client: client})), nil
}
