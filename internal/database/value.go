package database

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// NullText is the canonical text of a null value.
const NullText = "NULL"

const (
	timestampLayout = "2006-01-02 15:04:05"
	microLayout     = ".000000"
)

// Value is a single cell of a result row.
// The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Decimal returns a floating-point value that keeps the exact digits sent by
// the server. f is parsed from digits on a best-effort basis.
func Decimal(digits string) Value {
	f, _ := strconv.ParseFloat(digits, 64)
	return Value{kind: KindFloat, f: f, s: digits}
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Timestamp returns a timestamp value.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, t: t} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64 returns the integer held by v.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInteger }

// Float64 returns the float held by v.
func (v Value) Float64() (float64, bool) { return v.f, v.kind == KindFloat }

// Time returns the timestamp held by v.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTimestamp }

// String returns the canonical text form of v.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		if v.s != "" {
			return v.s
		}
		return formatFloat(v.f)
	case KindText:
		return v.s
	case KindTimestamp:
		return formatTimestamp(v.t)
	default:
		return NullText
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func formatTimestamp(t time.Time) string {
	s := t.Format(timestampLayout)
	if t.Nanosecond() != 0 {
		s += t.Format(microLayout)
	}
	return s
}

// FromAny converts a value produced by a database driver into a Value.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint:
		return fromUint64(uint64(x))
	case uint64:
		return fromUint64(x)
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case string:
		return Text(x)
	case []byte:
		return Text(string(x))
	case bool:
		return Text(strconv.FormatBool(x))
	case time.Time:
		return Timestamp(x)
	case fmt.Stringer:
		return Text(x.String())
	default:
		return Text(fmt.Sprintf("%v", x))
	}
}

func fromUint64(u uint64) Value {
	if u > math.MaxInt64 {
		return Text(strconv.FormatUint(u, 10))
	}
	return Int(int64(u))
}
