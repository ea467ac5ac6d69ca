// Package docstore wires mongo-driver/v2 in as a natives module: a
// thin wrapper over *mongo.Client/*mongo.Collection exposed to script
// code through the dispatch-on-verb callable shape the other natives/*
// packages use.
package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/asteria-lang/asteria/internal/function"
	"github.com/asteria-lang/asteria/internal/global"
	"github.com/asteria-lang/asteria/internal/value"
)

// Handle wraps a Mongo collection as a callable value.
type Handle struct {
	coll *mongo.Collection
}

func (h *Handle) Describe() string                              { return "docstore.Handle" }
func (h *Handle) EnumerateVariables(visit func(*value.Variable) bool) {}

func (h *Handle) Invoke(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	if len(args) == 0 {
		return value.Reference{}, fmt.Errorf("docstore handle requires a verb argument")
	}
	verbVal, err := args[0].Read()
	if err != nil {
		return value.Reference{}, err
	}
	verb, _ := verbVal.AsString()
	ctx := context.Background()
	switch verb {
	case "find":
		filter, err := objectArg(args, 1)
		if err != nil {
			return value.Reference{}, err
		}
		cur, err := h.coll.Find(ctx, filter, options.Find())
		if err != nil {
			return value.Reference{}, fmt.Errorf("doc_find: %w", err)
		}
		defer cur.Close(ctx)
		var docs []value.Value
		for cur.Next(ctx) {
			var raw bson.M
			if err := cur.Decode(&raw); err != nil {
				return value.Reference{}, err
			}
			docs = append(docs, bsonToValue(raw))
		}
		return value.NewTemporary(value.NewArray(docs...)), cur.Err()

	case "insert":
		doc, err := objectArg(args, 1)
		if err != nil {
			return value.Reference{}, err
		}
		res, err := h.coll.InsertOne(ctx, doc)
		if err != nil {
			return value.Reference{}, fmt.Errorf("doc_insert: %w", err)
		}
		return value.NewTemporary(value.FromString(fmt.Sprintf("%v", res.InsertedID))), nil

	default:
		return value.Reference{}, fmt.Errorf("unknown docstore verb %q", verb)
	}
}

func objectArg(args []value.Reference, i int) (bson.M, error) {
	if i >= len(args) {
		return bson.M{}, nil
	}
	v, err := args[i].Read()
	if err != nil {
		return nil, err
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("argument %d must be an object, got %s", i, v.Kind())
	}
	out := bson.M{}
	for _, k := range obj.Keys() {
		fv, _ := obj.Get(k)
		out[k] = scriptValueToGo(fv)
	}
	return out, nil
}

func scriptValueToGo(v value.Value) interface{} {
	switch v.Kind() {
	case value.Integer:
		i, _ := v.AsInt()
		return i
	case value.Real:
		r, _ := v.AsReal()
		return r
	case value.String:
		s, _ := v.AsString()
		return s
	case value.Boolean:
		b, _ := v.AsBool()
		return b
	default:
		return nil
	}
}

func bsonToValue(m bson.M) value.Value {
	obj, _ := value.NewObject().AsObject()
	for k, v := range m {
		switch t := v.(type) {
		case string:
			obj.Set(k, value.FromString(t))
		case int32:
			obj.Set(k, value.FromInt(int64(t)))
		case int64:
			obj.Set(k, value.FromInt(t))
		case float64:
			obj.Set(k, value.FromReal(t))
		case bool:
			obj.Set(k, value.FromBool(t))
		default:
			obj.Set(k, value.FromString(fmt.Sprintf("%v", t)))
		}
	}
	return value.FromObject(obj)
}

// Register wires `doc_open(uri, db, collection)` into g's root scope;
// find/insert are reached through the returned handle.
func Register(g *global.Context) {
	g.Define("doc_open", value.FromFunction(function.NewNative("doc_open", openFunc)))
}

func openFunc(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	if len(args) < 3 {
		return value.Reference{}, fmt.Errorf("doc_open(uri, db, collection) requires 3 arguments")
	}
	uriVal, _ := args[0].Read()
	dbVal, _ := args[1].Read()
	collVal, _ := args[2].Read()
	uri, _ := uriVal.AsString()
	dbName, _ := dbVal.AsString()
	collName, _ := collVal.AsString()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return value.Reference{}, fmt.Errorf("doc_open: %w", err)
	}
	coll := client.Database(dbName).Collection(collName)
	return value.NewTemporary(value.FromFunction(&Handle{coll: coll})), nil
}
