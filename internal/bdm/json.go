package bdm

import (
	"encoding/json"
	"fmt"
)

// ToJSON renders a scalar/array/object Value as JSON, the wire format
// the pgcat/neo4jcat/oraclecat adapters persist vertex/edge properties
// in (jsonb, in Postgres's case — mirroring agtype's own jsonb-superset
// on-disk shape). Temporal/binary/vertex/edge/path values have no JSON
// literal form; ToJSON does not reject them but renders each as JSON
// null. Properties objects never contain them.
func ToJSON(v Value) ([]byte, error) {
	return json.Marshal(toPlain(v))
}

func toPlain(v Value) interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString, KindNumeric:
		return v.Str
	case KindArray:
		out := make([]interface{}, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = toPlain(e)
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.Pairs))
		for _, p := range v.Pairs {
			out[p.Key] = toPlain(p.Val)
		}
		return out
	default:
		return nil
	}
}

// FromJSON parses a jsonb-encoded properties blob back into a Value.
// An empty or null input decodes to an empty Object, matching
// graph.NewVertex/NewEdge's "no properties" default.
func FromJSON(data []byte) (Value, error) {
	if len(data) == 0 {
		return Object(), nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("bdm: decode properties: %w", err)
	}
	if raw == nil {
		return Object(), nil
	}
	return fromPlain(raw), nil
}

func fromPlain(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool_(x)
	case float64:
		if x == float64(int64(x)) {
			return Int(int64(x))
		}
		return Float(x)
	case string:
		return String(x)
	case []interface{}:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = fromPlain(e)
		}
		return Array(elems...)
	case map[string]interface{}:
		pairs := make([]Pair, 0, len(x))
		for k, e := range x {
			pairs = append(pairs, Pair{Key: k, Val: fromPlain(e)})
		}
		return Object(pairs...)
	default:
		return Null()
	}
}
