package fieldtype

import (
	"encoding/json"
	"time"
)

// ValueKind discriminates the native representation held by a Value.
type ValueKind string

const (
	KindNull     ValueKind = "null"
	KindString   ValueKind = "string"
	KindNumber   ValueKind = "number"
	KindBool     ValueKind = "bool"
	KindDate     ValueKind = "date"
	KindDateTime ValueKind = "datetime"
	KindJSON     ValueKind = "json"
	KindRelation ValueKind = "relation"
)

// Layouts used to print date values.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = time.RFC3339Nano
)

// Value is a typed field value. It is what RecordStore hands out instead of the stored string.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	t    time.Time
	rel  int64
	js   any
}

func Null() Value                { return Value{kind: KindNull} }
func String(s string) Value      { return Value{kind: KindString, str: s} }
func Number(n float64) Value     { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Date(t time.Time) Value     { return Value{kind: KindDate, t: t} }
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }
func JSON(v any) Value           { return Value{kind: KindJSON, js: v} }
func Relation(id int64) Value    { return Value{kind: KindRelation, rel: id} }

// Kind reports the tag of v. The zero Value is null.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

func (v Value) IsNull() bool { return v.Kind() == KindNull }

func (v Value) Str() string       { return v.str }
func (v Value) Num() float64      { return v.num }
func (v Value) Bool() bool        { return v.b }
func (v Value) Time() time.Time   { return v.t }
func (v Value) RelationID() int64 { return v.rel }

// Native returns the canonical Go value: string, float64, bool, int64, a decoded
// JSON value, nil, or, for dates, the formatted date string.
func (v Value) Native() any {
	switch v.Kind() {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.t.Format(DateLayout)
	case KindDateTime:
		return v.t.Format(DateTimeLayout)
	case KindJSON:
		return v.js
	case KindRelation:
		return v.rel
	default:
		return nil
	}
}

// MarshalJSON emits the native value, so API consumers see plain JSON scalars.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}
