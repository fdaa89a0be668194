package stream

// capture is the downstream used across the operator tests: it records the
// exact Accept/Flush sequence it observes.

type event struct {
	flush bool
	rec   Record
}

type capture struct {
	events []event
}

func (c *capture) Accept(r Record) error {
	c.events = append(c.events, event{rec: r})
	return nil
}

func (c *capture) Flush(ctx Record) error {
	c.events = append(c.events, event{flush: true, rec: ctx})
	return nil
}

func (c *capture) accepted() []Record {
	var out []Record
	for _, e := range c.events {
		if !e.flush {
			out = append(out, e.rec)
		}
	}
	return out
}

func (c *capture) flushed() []Record {
	var out []Record
	for _, e := range c.events {
		if e.flush {
			out = append(out, e.rec)
		}
	}
	return out
}

func (c *capture) reset() {
	c.events = nil
}

// testPacket builds a plausible flow record in the shape the CSV and packet
// sources produce.
func testPacket(time float64, src, dst string, proto, flags int64) Record {
	return Record{
		"time":       FloatValue(time),
		"ipv4.src":   MustIPv4(src),
		"ipv4.dst":   MustIPv4(dst),
		"ipv4.proto": IntValue(proto),
		"ipv4.len":   IntValue(60),
		"l4.sport":   IntValue(44000),
		"l4.dport":   IntValue(80),
		"l4.flags":   IntValue(flags),
	}
}
