package bdm

import (
	"strconv"
	"strings"

	"cyquery/internal/cqlerr"
)

// Cast converts v to the requested target Kind, modelled on
// agtype_typecasting.c: the numeric family freely interconverts, a
// string parses into bool, int, float or numeric, and every
// non-container kind formats to string (interval, binary and graph
// values format as the empty string). Temporal kinds do not convert to
// one another. Casts between container kinds, or between a scalar and
// a container, are never legal. Every unsupported pair returns
// InvalidTypeCast — supplemented feature, SPEC_FULL.md §14.
func Cast(v Value, target Kind) (Value, error) {
	if v.Kind == target {
		return v, nil
	}
	if v.Kind.isContainer() || target.isContainer() {
		return Value{}, cqlerr.New(cqlerr.InvalidTypeCast, "cannot cast %s to %s", v.Kind, target)
	}
	if v.Kind.isNumericFamily() && target.isNumericFamily() {
		return castNumeric(v, target)
	}
	if target == KindString {
		return String(formatScalar(v)), nil
	}
	if v.Kind == KindString {
		return parseScalar(v.Str, target)
	}
	return Value{}, cqlerr.New(cqlerr.InvalidTypeCast, "cannot cast %s to %s", v.Kind, target)
}

func castNumeric(v Value, target Kind) (Value, error) {
	switch target {
	case KindInt:
		switch v.Kind {
		case KindInt:
			return v, nil
		case KindFloat:
			return Int(int64(v.Float)), nil
		case KindNumeric:
			i, err := strconv.ParseInt(strings.TrimSuffix(v.Str, ".0"), 10, 64)
			if err != nil {
				return Value{}, cqlerr.Wrap(cqlerr.InvalidTypeCast, err, "numeric %q is not an integer", v.Str)
			}
			return Int(i), nil
		}
	case KindFloat:
		switch v.Kind {
		case KindInt:
			return Float(float64(v.Int)), nil
		case KindFloat:
			return v, nil
		case KindNumeric:
			f, err := strconv.ParseFloat(v.Str, 64)
			if err != nil {
				return Value{}, cqlerr.Wrap(cqlerr.InvalidTypeCast, err, "numeric %q is not a float", v.Str)
			}
			return Float(f), nil
		}
	case KindNumeric:
		switch v.Kind {
		case KindInt:
			return Numeric(strconv.FormatInt(v.Int, 10)), nil
		case KindFloat:
			return Numeric(strconv.FormatFloat(v.Float, 'f', -1, 64)), nil
		case KindNumeric:
			return v, nil
		}
	}
	return Value{}, cqlerr.New(cqlerr.InvalidTypeCast, "cannot cast %s to %s", v.Kind, target)
}

func formatScalar(v Value) string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindNumeric:
		return v.Str
	case KindDate, KindTimestamp, KindTimestampTz, KindTime, KindTimeTz:
		return strconv.FormatInt(v.Int, 10)
	default:
		return ""
	}
}

func parseScalar(s string, target Kind) (Value, error) {
	switch target {
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return Bool_(true), nil
		case "false":
			return Bool_(false), nil
		}
		return Value{}, cqlerr.New(cqlerr.InvalidTypeCast, "string %q is not a boolean", s)
	case KindInt:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Value{}, cqlerr.Wrap(cqlerr.InvalidTypeCast, err, "string %q is not an integer", s)
		}
		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, cqlerr.Wrap(cqlerr.InvalidTypeCast, err, "string %q is not a float", s)
		}
		return Float(f), nil
	case KindNumeric:
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return Value{}, cqlerr.Wrap(cqlerr.InvalidTypeCast, err, "string %q is not numeric", s)
		}
		return Numeric(strings.TrimSpace(s)), nil
	default:
		return Value{}, cqlerr.New(cqlerr.InvalidTypeCast, "cannot cast string to %s", target)
	}
}
