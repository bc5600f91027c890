package snmpkit

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is a canonical numeric object identifier. Once resolved, comparison
// and wire encoding use only this form.
type OID []uint32

// String renders the OID in leading-dot dotted form, the shape gosnmp
// reports variable names in.
func (o OID) String() string {
	var b strings.Builder
	for _, arc := range o {
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(uint64(arc), 10))
	}
	return b.String()
}

func (o OID) Equal(other OID) bool {
	if len(o) != len(other) {
		return false
	}
	for i, arc := range o {
		if other[i] != arc {
			return false
		}
	}
	return true
}

func (o OID) hasPrefix(prefix OID) bool {
	if len(prefix) > len(o) {
		return false
	}
	for i, arc := range prefix {
		if o[i] != arc {
			return false
		}
	}
	return true
}

// ParseOID parses a purely numeric dotted OID, with or without a leading
// dot.
func ParseOID(s string) (OID, error) {
	trimmed := strings.TrimPrefix(s, ".")
	if trimmed == "" {
		return nil, fmt.Errorf("snmp: empty OID %q", s)
	}
	segs := strings.Split(trimmed, ".")
	oid := make(OID, 0, len(segs))
	for _, seg := range segs {
		arc, err := strconv.ParseUint(seg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("snmp: invalid OID component %q in %q", seg, s)
		}
		oid = append(oid, uint32(arc))
	}
	return oid, nil
}

// ResolveOID parses an OID expression into canonical numeric form,
// resolving symbolic components against reg. The following notations are
// accepted:
//
//	SNMPv2-MIB::sysDescr.0
//	.1.3.6.1.2.1.1.1.0
//	.iso.org.6.internet.2.1.1.1.0
//	sysDescr.0
//
// A "::" marks a module-qualified symbol, a leading dot a numeric or mixed
// numeric/symbolic path, anything else a bare symbol searched across all
// loaded modules.
func ResolveOID(expr string, reg *Registry) (OID, error) {
	if expr == "" {
		return nil, &UnknownSymbolError{Symbol: expr}
	}
	if module, rest, ok := strings.Cut(expr, "::"); ok {
		return resolveSymbolic(reg, module, rest)
	}
	if strings.HasPrefix(expr, ".") {
		return appendSegments(reg, nil, strings.Split(expr[1:], "."))
	}
	return resolveSymbolic(reg, "", expr)
}

func resolveSymbolic(reg *Registry, module, rest string) (OID, error) {
	symbol, suffix, _ := strings.Cut(rest, ".")
	base, err := reg.Resolve(module, symbol)
	if err != nil {
		return nil, err
	}
	oid := append(OID(nil), base...)
	if suffix == "" {
		return oid, nil
	}
	return appendSegments(reg, oid, strings.Split(suffix, "."))
}

// appendSegments extends oid segment by segment. Each segment is first
// tried as an integer arc; a segment that does not parse is resolved as a
// symbol whose full OID must extend the accumulated prefix.
func appendSegments(reg *Registry, oid OID, segs []string) (OID, error) {
	for _, seg := range segs {
		if arc, err := strconv.ParseUint(seg, 10, 32); err == nil {
			oid = append(oid, uint32(arc))
			continue
		}
		full, err := reg.Resolve("", seg)
		if err != nil {
			return nil, err
		}
		if !full.hasPrefix(oid) {
			return nil, &UnknownSymbolError{Symbol: seg}
		}
		oid = append(OID(nil), full...)
	}
	return oid, nil
}
