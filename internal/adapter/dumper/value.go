package dumper

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags a column value pulled from a result set.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindInteger
	KindFloat
	KindTimestamp
	KindBytes
)

// Value is one column value with an explicit SQL-literal rendering per
// kind, instead of generic stringification.
type Value struct {
	kind  Kind
	text  string
	num   string
	ts    time.Time
	bytes []byte
}

func Null() Value                 { return Value{kind: KindNull} }
func Text(s string) Value         { return Value{kind: KindText, text: s} }
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, ts: t} }
func Bytes(b []byte) Value        { return Value{kind: KindBytes, bytes: b} }
func Integer(raw string) Value    { return Value{kind: KindInteger, num: raw} }
func Float(raw string) Value      { return Value{kind: KindFloat, num: raw} }

func (v Value) Kind() Kind { return v.kind }

// Literal renders the value as it appears inside an INSERT statement.
func (v Value) Literal() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindText:
		return "'" + escapeString(v.text) + "'"
	case KindInteger, KindFloat:
		return v.num
	case KindTimestamp:
		return "'" + v.ts.Format("2006-01-02 15:04:05") + "'"
	case KindBytes:
		if len(v.bytes) == 0 {
			return "''"
		}
		return fmt.Sprintf("0x%X", v.bytes)
	default:
		return "NULL"
	}
}

// escapeString escapes the characters the MySQL text protocol requires
// inside a single-quoted literal.
func escapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case 0x1a:
			b.WriteString(`\Z`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// numericType reports whether a column's database type holds a number the
// text protocol may still deliver as []byte.
func numericType(dbType string) (isNumeric, isFloat bool) {
	switch strings.ToUpper(dbType) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT",
		"UNSIGNED INT", "UNSIGNED BIGINT":
		return true, false
	case "FLOAT", "DOUBLE", "DECIMAL":
		return true, true
	}
	return false, false
}

func binaryType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "BINARY", "VARBINARY", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BIT", "GEOMETRY":
		return true
	}
	return false
}

// classify converts a scanned driver value into a tagged Value. The
// column's database type name disambiguates []byte payloads, which the
// MySQL text protocol uses for numbers and strings alike.
func classify(raw any, dbType string) Value {
	switch v := raw.(type) {
	case nil:
		return Null()
	case time.Time:
		return Timestamp(v)
	case int64:
		return Integer(fmt.Sprintf("%d", v))
	case uint64:
		return Integer(fmt.Sprintf("%d", v))
	case float64:
		return Float(fmt.Sprintf("%v", v))
	case string:
		if isNum, isFloat := numericType(dbType); isNum {
			if isFloat {
				return Float(v)
			}
			return Integer(v)
		}
		return Text(v)
	case []byte:
		if binaryType(dbType) {
			return Bytes(append([]byte(nil), v...))
		}
		if isNum, isFloat := numericType(dbType); isNum {
			if isFloat {
				return Float(string(v))
			}
			return Integer(string(v))
		}
		return Text(string(v))
	default:
		return Text(fmt.Sprintf("%v", v))
	}
}
