package snmpkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/jonboulle/clockwork"
)

type fakeAgent struct {
	values map[string]gosnmp.SnmpPDU
	gets   int
	sets   int
	status gosnmp.SNMPError
	err    error
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{values: make(map[string]gosnmp.SnmpPDU)}
}

func (f *fakeAgent) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	if f.status != gosnmp.NoError {
		return &gosnmp.SnmpPacket{Error: f.status, ErrorIndex: 1}, nil
	}
	var variables []gosnmp.SnmpPDU
	for _, oid := range oids {
		pdu, ok := f.values[oid]
		if !ok {
			pdu = gosnmp.SnmpPDU{Name: oid, Type: gosnmp.NoSuchObject}
		}
		variables = append(variables, pdu)
	}
	return &gosnmp.SnmpPacket{Variables: variables}, nil
}

func (f *fakeAgent) Set(pdus []gosnmp.SnmpPDU) (*gosnmp.SnmpPacket, error) {
	f.sets++
	if f.err != nil {
		return nil, f.err
	}
	if f.status != gosnmp.NoError {
		return &gosnmp.SnmpPacket{Error: f.status, ErrorIndex: 1}, nil
	}
	for _, pdu := range pdus {
		f.values[pdu.Name] = pdu
	}
	return &gosnmp.SnmpPacket{Variables: pdus}, nil
}

func newTestSession(t *testing.T, fa *fakeAgent) *Session {
	t.Helper()
	s := NewSession(newTestRegistry(t))
	s.clock = clockwork.NewFakeClock()
	s.dial = func(*Session) (agent, func() error, error) { return fa, nil, nil }
	s.SetHost("10.0.111.112", 0)
	s.SetCommunityString("private")
	return s
}

func TestGetBeforeSetHost(t *testing.T) {
	dials := 0
	s := NewSession(nil)
	s.dial = func(*Session) (agent, func() error, error) {
		dials++
		return newFakeAgent(), nil, nil
	}
	_, err := s.Get(".1.3.6.1.2.1.1.1.0")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if dials != 0 {
		t.Fatalf("expected no transport attempt, got %d dials", dials)
	}
}

func TestGetDecodesValue(t *testing.T) {
	fa := newFakeAgent()
	fa.values[".1.3.6.1.2.1.1.1.0"] = gosnmp.SnmpPDU{
		Name:  ".1.3.6.1.2.1.1.1.0",
		Type:  gosnmp.OctetString,
		Value: []byte("Linux kex 5.4.0"),
	}
	s := newTestSession(t, fa)
	if err := s.PreloadMibs("SNMPv2-MIB"); err != nil {
		t.Fatalf("failed to preload: %v", err)
	}
	for _, expr := range []string{".1.3.6.1.2.1.1.1.0", "SNMPv2-MIB::sysDescr.0", "sysDescr.0"} {
		v, err := s.Get(expr)
		if err != nil {
			t.Fatalf("GET %q failed: %v", expr, err)
		}
		if v.String() != "Linux kex 5.4.0" {
			t.Fatalf("GET %q: unexpected value %q", expr, v)
		}
	}
	if fa.gets != 3 {
		t.Fatalf("expected 3 exchanges, got %d", fa.gets)
	}
}

func TestGetObjectNotFound(t *testing.T) {
	s := newTestSession(t, newFakeAgent())
	_, err := s.Get("SNMPv2-MIB::sysName.0")
	var nf *ObjectNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected ObjectNotFoundError, got %v", err)
	}
	if nf.OID.String() != ".1.3.6.1.2.1.1.5.0" {
		t.Fatalf("error names wrong OID: %s", nf.OID)
	}
}

func TestGetAgentError(t *testing.T) {
	fa := newFakeAgent()
	fa.status = gosnmp.NoSuchName
	s := newTestSession(t, fa)
	_, err := s.Get(".1.3.6.1.2.1.1.1.0")
	var ae *AgentError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AgentError, got %v", err)
	}
	if ae.Status != int(gosnmp.NoSuchName) || ae.Description != "no such name" {
		t.Fatalf("unexpected agent error: %+v", ae)
	}
}

func TestGetTransportError(t *testing.T) {
	fa := newFakeAgent()
	fa.err = fmt.Errorf("read udp: i/o timeout")
	s := newTestSession(t, fa)
	_, err := s.Get(".1.3.6.1.2.1.1.1.0")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !errors.Is(err, fa.err) {
		t.Fatalf("transport error does not carry the indication: %v", err)
	}
}

func TestSetTypedWrapperRejectsBadValue(t *testing.T) {
	fa := newFakeAgent()
	s := newTestSession(t, fa)
	err := s.SetInteger32(".1.3.6.1.2.1.1.7.0", "2147483648")
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if fa.sets != 0 {
		t.Fatalf("conversion failure must not reach the wire, got %d sets", fa.sets)
	}
}

func TestSetAgentError(t *testing.T) {
	fa := newFakeAgent()
	fa.status = gosnmp.NotWritable
	s := newTestSession(t, fa)
	err := s.SetOctetString(".1.3.6.1.2.1.1.6.0", "Test")
	var ae *AgentError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AgentError, got %v", err)
	}
	if ae.Description != "not writable" {
		t.Fatalf("unexpected description %q", ae.Description)
	}
}

func TestReconfigureRedials(t *testing.T) {
	dials := 0
	fa := newFakeAgent()
	fa.values[".1.3.6.1.2.1.1.1.0"] = gosnmp.SnmpPDU{
		Name:  ".1.3.6.1.2.1.1.1.0",
		Type:  gosnmp.OctetString,
		Value: []byte("x"),
	}
	s := newTestSession(t, fa)
	prev := s.dial
	s.dial = func(sess *Session) (agent, func() error, error) {
		dials++
		return prev(sess)
	}
	if _, err := s.Get(".1.3.6.1.2.1.1.1.0"); err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if _, err := s.Get(".1.3.6.1.2.1.1.1.0"); err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if dials != 1 {
		t.Fatalf("expected the association to be reused, got %d dials", dials)
	}
	s.SetCommunityString("other")
	if _, err := s.Get(".1.3.6.1.2.1.1.1.0"); err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if dials != 2 {
		t.Fatalf("expected a re-dial after reconfiguration, got %d dials", dials)
	}
}

// The scenario the library exists for: configure, preload, read the system
// description, relocate the box, bump a gauge.
func TestEndToEndScenario(t *testing.T) {
	fa := newFakeAgent()
	fa.values[".1.3.6.1.2.1.1.1.0"] = gosnmp.SnmpPDU{
		Name:  ".1.3.6.1.2.1.1.1.0",
		Type:  gosnmp.OctetString,
		Value: []byte("Linux kex 5.4.0"),
	}
	s := newTestSession(t, fa)
	if err := s.PreloadMibs("SNMPv2-MIB"); err != nil {
		t.Fatalf("failed to preload: %v", err)
	}

	descr, err := s.Get(".1.3.6.1.2.1.1.1.0")
	if err != nil {
		t.Fatalf("GET sysDescr failed: %v", err)
	}
	if descr.String() != "Linux kex 5.4.0" {
		t.Fatalf("unexpected sysDescr %q", descr)
	}

	if err := s.SetOctetString(".1.3.6.1.2.1.1.6.0", "Test"); err != nil {
		t.Fatalf("SET sysLocation failed: %v", err)
	}
	loc, err := s.Get("SNMPv2-MIB::sysLocation.0")
	if err != nil {
		t.Fatalf("GET sysLocation failed: %v", err)
	}
	if loc.String() != "Test" {
		t.Fatalf("expected sysLocation=Test, got %q", loc)
	}

	gaugeOid := ".1.3.6.1.4.1.15000.5.2.1.0"
	if err := s.SetGauge32(gaugeOid, "200"); err != nil {
		t.Fatalf("SET gauge failed: %v", err)
	}
	g, err := s.Get(gaugeOid)
	if err != nil {
		t.Fatalf("GET gauge failed: %v", err)
	}
	if g.Type != TypeGauge32 || g.Uint != 200 {
		t.Fatalf("expected Gauge32(200), got %+v", g)
	}
}
