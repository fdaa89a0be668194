package stream

import (
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
)

// Kind discriminates the variants a Value can hold.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindFloat
	KindInt
	KindIPv4
	KindMAC
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindIPv4:
		return "ipv4"
	case KindMAC:
		return "mac"
	default:
		return "unknown"
	}
}

// Value is one scalar measurement carried in a flow record. It is a closed
// tagged union: float, int, IPv4 address, hardware address, or Empty.
// Empty is the "no accumulator yet" sentinel used by reductions; it is never
// a legitimate field value. Value is comparable, so records holding them can
// be compared and hashed field by field.
type Value struct {
	kind Kind
	f    float64
	i    int64
	ip   netip.Addr
	mac  [6]byte
}

// Empty is the distinguished absent/no-accumulator sentinel.
var Empty = Value{kind: KindEmpty}

func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

func IPv4Value(addr netip.Addr) Value {
	return Value{kind: KindIPv4, ip: addr}
}

// MustIPv4 parses a dotted-quad address, panicking on bad input. Intended
// for fixtures and hand-built records, not for ingestion paths.
func MustIPv4(s string) Value {
	return IPv4Value(netip.MustParseAddr(s))
}

func MACValue(mac [6]byte) Value {
	return Value{kind: KindMAC, mac: mac}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Float extracts the float variant. Any other variant is a type mismatch.
func (v Value) Float() (float64, error) {
	if v.kind != KindFloat {
		return 0, &TypeMismatchError{Want: KindFloat, Got: v.kind}
	}
	return v.f, nil
}

// Int extracts the int variant. Any other variant is a type mismatch.
func (v Value) Int() (int64, error) {
	if v.kind != KindInt {
		return 0, &TypeMismatchError{Want: KindInt, Got: v.kind}
	}
	return v.i, nil
}

func (v Value) IPv4() (netip.Addr, error) {
	if v.kind != KindIPv4 {
		return netip.Addr{}, &TypeMismatchError{Want: KindIPv4, Got: v.kind}
	}
	return v.ip, nil
}

func (v Value) MAC() ([6]byte, error) {
	if v.kind != KindMAC {
		return [6]byte{}, &TypeMismatchError{Want: KindMAC, Got: v.kind}
	}
	return v.mac, nil
}

// String renders the value the way the dump sink prints it.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindIPv4:
		return v.ip.String()
	case KindMAC:
		return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
			v.mac[0], v.mac[1], v.mac[2], v.mac[3], v.mac[4], v.mac[5])
	case KindEmpty:
		return "Empty"
	default:
		return "invalid"
	}
}

// Native returns the value as a plain Go type for JSON-bound sinks.
func (v Value) Native() any {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return v.i
	case KindIPv4:
		return v.ip.String()
	case KindMAC:
		return v.String()
	default:
		return nil
	}
}

// appendCanonical writes an unambiguous, kind-tagged encoding of the value.
// Two values append the same bytes iff they are equal; the float encoding
// uses the raw bit pattern so 0.0 and -0.0 stay distinct.
func (v Value) appendCanonical(b *strings.Builder) {
	switch v.kind {
	case KindFloat:
		b.WriteByte('F')
		b.WriteString(strconv.FormatUint(math.Float64bits(v.f), 16))
	case KindInt:
		b.WriteByte('I')
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindIPv4:
		b.WriteByte('A')
		b.WriteString(v.ip.String())
	case KindMAC:
		b.WriteByte('M')
		for _, octet := range v.mac {
			fmt.Fprintf(b, "%02x", octet)
		}
	case KindEmpty:
		b.WriteByte('E')
	}
}

var tcpFlagNames = []string{"FIN", "SYN", "RST", "PSH", "ACK", "URG", "ECE", "CWR"}

// TCPFlagsString renders a TCP flags bitmask as "SYN|ACK" style text.
func TCPFlagsString(flags int64) string {
	var set []string
	for i, name := range tcpFlagNames {
		if flags&(1<<i) != 0 {
			set = append(set, name)
		}
	}
	return strings.Join(set, "|")
}
