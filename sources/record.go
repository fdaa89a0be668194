package sources

import (
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"

	"github.com/tarungka/sift/stream"
)

// Field typing for ingested flow records. The engine is fail-fast past this
// boundary, so ingestion is where loose encodings (JSON, CSV text) get
// pinned to the variant each field must carry.

var intFields = map[string]bool{
	"eth.ethertype": true,
	"ipv4.hlen":     true,
	"ipv4.proto":    true,
	"ipv4.len":      true,
	"l4.sport":      true,
	"l4.dport":      true,
	"l4.flags":      true,
	"packet_count":  true,
	"byte_count":    true,
	"eid":           true,
}

var floatFields = map[string]bool{
	"time": true,
}

var addrFields = map[string]bool{
	"ipv4.src": true,
	"ipv4.dst": true,
}

var macFields = map[string]bool{
	"eth.src": true,
	"eth.dst": true,
}

// RecordFromJSON converts a decoded JSON object into a typed flow record.
// Known header fields are coerced to their canonical variant; unknown
// numbers become Int when integral and Float otherwise, and unknown strings
// must parse as an IPv4 or MAC address. Anything else is rejected so the
// core never sees a half-typed record.
func RecordFromJSON(doc map[string]any) (stream.Record, error) {
	out := make(stream.Record, len(doc))
	for field, raw := range doc {
		v, err := valueFromJSON(field, raw)
		if err != nil {
			return nil, err
		}
		out[field] = v
	}
	return out, nil
}

func valueFromJSON(field string, raw any) (stream.Value, error) {
	switch val := raw.(type) {
	case float64:
		switch {
		case floatFields[field]:
			return stream.FloatValue(val), nil
		case intFields[field]:
			return stream.IntValue(int64(val)), nil
		case val == math.Trunc(val):
			return stream.IntValue(int64(val)), nil
		default:
			return stream.FloatValue(val), nil
		}
	case string:
		if macFields[field] || strings.Count(val, ":") == 5 {
			mac, err := parseMAC(val)
			if err != nil {
				return stream.Empty, fmt.Errorf("field %q: %w", field, err)
			}
			return stream.MACValue(mac), nil
		}
		if addrFields[field] || strings.Count(val, ".") == 3 {
			addr, err := netip.ParseAddr(val)
			if err != nil {
				return stream.Empty, fmt.Errorf("field %q: %w", field, err)
			}
			return stream.IPv4Value(addr), nil
		}
		return stream.Empty, fmt.Errorf("field %q: cannot type string value %q", field, val)
	default:
		return stream.Empty, fmt.Errorf("field %q: unsupported value type %T", field, raw)
	}
}

func parseMAC(s string) ([6]byte, error) {
	var mac [6]byte
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return mac, fmt.Errorf("malformed hardware address %q", s)
	}
	for i, part := range parts {
		octet, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return mac, fmt.Errorf("malformed hardware address %q", s)
		}
		mac[i] = byte(octet)
	}
	return mac, nil
}
