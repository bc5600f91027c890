package snmpkit

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gosnmp/gosnmp"
)

// Type tags the SNMP value variants the client can send and receive.
type Type int

const (
	TypeNull Type = iota
	TypeOctetString
	TypeInteger
	TypeInteger32
	TypeCounter32
	TypeCounter64
	TypeGauge32
	TypeUnsigned32
	TypeTimeTicks
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "Null"
	case TypeOctetString:
		return "OctetString"
	case TypeInteger:
		return "Integer"
	case TypeInteger32:
		return "Integer32"
	case TypeCounter32:
		return "Counter32"
	case TypeCounter64:
		return "Counter64"
	case TypeGauge32:
		return "Gauge32"
	case TypeUnsigned32:
		return "Unsigned32"
	case TypeTimeTicks:
		return "TimeTicks"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Value is a tagged SNMP value. Exactly one payload field is meaningful,
// selected by Type: Bytes for OctetString, Int for Integer/Integer32, Uint
// for the unsigned 32/64-bit variants. Null carries nothing.
type Value struct {
	Type  Type
	Bytes []byte
	Int   int64
	Uint  uint64
}

// Null is the distinguished value the protocol returns for a missing
// object. Get never surfaces it as a success.
var Null = Value{Type: TypeNull}

func (v Value) IsNull() bool { return v.Type == TypeNull }

// String renders the payload the way an operator expects to read it:
// octet strings as text, numbers in decimal.
func (v Value) String() string {
	switch v.Type {
	case TypeOctetString:
		return string(v.Bytes)
	case TypeInteger, TypeInteger32:
		return strconv.FormatInt(v.Int, 10)
	case TypeCounter32, TypeCounter64, TypeGauge32, TypeUnsigned32, TypeTimeTicks:
		return strconv.FormatUint(v.Uint, 10)
	}
	return "Null"
}

// ConvertToOctetString converts a string or byte slice to an OctetString
// value.
func ConvertToOctetString(raw any) (Value, error) {
	switch b := raw.(type) {
	case string:
		return Value{Type: TypeOctetString, Bytes: []byte(b)}, nil
	case []byte:
		return Value{Type: TypeOctetString, Bytes: append([]byte(nil), b...)}, nil
	}
	return Null, &FormatError{Type: TypeOctetString, Value: fmt.Sprint(raw)}
}

// ConvertToInteger converts a numeric raw value to an Integer value.
func ConvertToInteger(raw any) (Value, error) {
	n, err := coerceInt(raw, TypeInteger)
	if err != nil {
		return Null, err
	}
	return Value{Type: TypeInteger, Int: n}, nil
}

// ConvertToInteger32 converts a numeric raw value to a signed 32-bit
// Integer32 value.
func ConvertToInteger32(raw any) (Value, error) {
	n, err := coerceInt(raw, TypeInteger32)
	if err != nil {
		return Null, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return Null, &RangeError{Type: TypeInteger32, Value: strconv.FormatInt(n, 10)}
	}
	return Value{Type: TypeInteger32, Int: n}, nil
}

// ConvertToCounter32 converts a numeric raw value to a Counter32 value.
func ConvertToCounter32(raw any) (Value, error) {
	return convertUint32(raw, TypeCounter32)
}

// ConvertToCounter64 converts a numeric raw value to a Counter64 value.
func ConvertToCounter64(raw any) (Value, error) {
	n, err := coerceUint(raw, TypeCounter64)
	if err != nil {
		return Null, err
	}
	return Value{Type: TypeCounter64, Uint: n}, nil
}

// ConvertToGauge32 converts a numeric raw value to a Gauge32 value.
func ConvertToGauge32(raw any) (Value, error) {
	return convertUint32(raw, TypeGauge32)
}

// ConvertToUnsigned32 converts a numeric raw value to an Unsigned32 value.
func ConvertToUnsigned32(raw any) (Value, error) {
	return convertUint32(raw, TypeUnsigned32)
}

// ConvertToTimeTicks converts a numeric raw value to a TimeTicks value.
func ConvertToTimeTicks(raw any) (Value, error) {
	return convertUint32(raw, TypeTimeTicks)
}

func convertUint32(raw any, t Type) (Value, error) {
	n, err := coerceUint(raw, t)
	if err != nil {
		return Null, err
	}
	if n > math.MaxUint32 {
		return Null, &RangeError{Type: t, Value: strconv.FormatUint(n, 10)}
	}
	return Value{Type: t, Uint: n}, nil
}

func coerceInt(raw any, t Type) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return coerceInt(uint64(n), t)
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, &RangeError{Type: t, Value: strconv.FormatUint(n, 10)}
		}
		return int64(n), nil
	case string:
		v, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, numErr(err, t, n)
		}
		return v, nil
	}
	return 0, &FormatError{Type: t, Value: fmt.Sprint(raw)}
}

func coerceUint(raw any, t Type) (uint64, error) {
	switch n := raw.(type) {
	case int:
		return coerceUint(int64(n), t)
	case int8:
		return coerceUint(int64(n), t)
	case int16:
		return coerceUint(int64(n), t)
	case int32:
		return coerceUint(int64(n), t)
	case int64:
		if n < 0 {
			return 0, &RangeError{Type: t, Value: strconv.FormatInt(n, 10)}
		}
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case string:
		v, err := strconv.ParseUint(n, 10, 64)
		if err == nil {
			return v, nil
		}
		// A parseable negative number is a domain violation, not a
		// malformed input.
		if s, serr := strconv.ParseInt(n, 10, 64); serr == nil && s < 0 {
			return 0, &RangeError{Type: t, Value: n}
		}
		return 0, numErr(err, t, n)
	}
	return 0, &FormatError{Type: t, Value: fmt.Sprint(raw)}
}

func numErr(err error, t Type, raw string) error {
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return &RangeError{Type: t, Value: raw}
	}
	return &FormatError{Type: t, Value: raw}
}

// pdu builds the wire varbind for v at the given OID. Unsigned32 shares
// the Gauge32 BER tag; the distinction lives only on this side.
func (v Value) pdu(oid OID) (gosnmp.SnmpPDU, error) {
	name := oid.String()
	switch v.Type {
	case TypeOctetString:
		return gosnmp.SnmpPDU{Name: name, Type: gosnmp.OctetString, Value: v.Bytes}, nil
	case TypeInteger, TypeInteger32:
		return gosnmp.SnmpPDU{Name: name, Type: gosnmp.Integer, Value: int(v.Int)}, nil
	case TypeCounter32:
		return gosnmp.SnmpPDU{Name: name, Type: gosnmp.Counter32, Value: uint32(v.Uint)}, nil
	case TypeCounter64:
		return gosnmp.SnmpPDU{Name: name, Type: gosnmp.Counter64, Value: v.Uint}, nil
	case TypeGauge32, TypeUnsigned32:
		return gosnmp.SnmpPDU{Name: name, Type: gosnmp.Gauge32, Value: uint32(v.Uint)}, nil
	case TypeTimeTicks:
		return gosnmp.SnmpPDU{Name: name, Type: gosnmp.TimeTicks, Value: uint32(v.Uint)}, nil
	case TypeNull:
		return gosnmp.SnmpPDU{Name: name, Type: gosnmp.Null}, nil
	}
	return gosnmp.SnmpPDU{}, &FormatError{Type: v.Type, Value: v.String()}
}

// decodeVariable interprets a varbind returned by the agent. The three v2c
// exception markers decode as Null alongside the Null type itself.
func decodeVariable(pdu gosnmp.SnmpPDU) (Value, error) {
	switch pdu.Type {
	case gosnmp.OctetString:
		switch b := pdu.Value.(type) {
		case []byte:
			return Value{Type: TypeOctetString, Bytes: append([]byte(nil), b...)}, nil
		case string:
			return Value{Type: TypeOctetString, Bytes: []byte(b)}, nil
		}
		return Null, fmt.Errorf("snmp: unexpected OctetString payload %T", pdu.Value)
	case gosnmp.Integer:
		return Value{Type: TypeInteger, Int: gosnmp.ToBigInt(pdu.Value).Int64()}, nil
	case gosnmp.Counter32:
		return Value{Type: TypeCounter32, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}, nil
	case gosnmp.Gauge32:
		return Value{Type: TypeGauge32, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}, nil
	case gosnmp.Uinteger32:
		return Value{Type: TypeUnsigned32, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}, nil
	case gosnmp.TimeTicks:
		return Value{Type: TypeTimeTicks, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}, nil
	case gosnmp.Counter64:
		return Value{Type: TypeCounter64, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}, nil
	case gosnmp.Null, gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
		return Null, nil
	}
	return Null, fmt.Errorf("snmp: unsupported value type 0x%02x in response", int(pdu.Type))
}
