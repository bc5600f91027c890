package snmpkit

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gosnmp/gosnmp"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultPort is the standard SNMP agent port.
const DefaultPort = 161

var (
	// Number of SNMP exchanges, by operation.
	getsTotal = metrics.NewCounter(`snmp_requests_total{op="get"}`)
	setsTotal = metrics.NewCounter(`snmp_requests_total{op="set"}`)
	// SNMP exchange duration.
	requestDuration = metrics.NewSummary(`snmp_requests_duration_seconds`)
)

// agent drives one SNMP exchange on the wire. *gosnmp.GoSNMP satisfies it;
// tests substitute a map-backed fake.
type agent interface {
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Set(pdus []gosnmp.SnmpPDU) (*gosnmp.SnmpPacket, error)
}

// Session holds the parameters for talking to one SNMP agent: host, port,
// community string, timeout/retry policy and the MIB lookup service handle.
// Host, port and community may be reconfigured between requests; the UDP
// association is re-dialed on the next request after a change.
//
// A Session is not safe for concurrent use. Callers needing concurrent
// requests should use independent Sessions (which may share a Registry once
// it is fully loaded) or serialize access externally.
type Session struct {
	host      string
	port      uint16
	community string

	timeout time.Duration
	retries int

	mibs  *Registry
	clock clockwork.Clock

	conn   agent
	closer func() error
	dial   func(s *Session) (agent, func() error, error)
}

// NewSession returns a Session using the given MIB lookup service. A nil
// registry gets a fresh empty one.
func NewSession(reg *Registry) *Session {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Session{
		port:      DefaultPort,
		community: "public",
		timeout:   time.Second,
		retries:   3,
		mibs:      reg,
		clock:     clockwork.NewRealClock(),
		dial:      dialUDP,
	}
}

func dialUDP(s *Session) (agent, func() error, error) {
	c := &gosnmp.GoSNMP{
		Target:             s.host,
		Port:               s.port,
		Transport:          "udp",
		Community:          s.community,
		Version:            gosnmp.Version2c,
		Timeout:            s.timeout,
		Retries:            s.retries,
		ExponentialTimeout: true,
		MaxOids:            gosnmp.MaxOids,
	}
	if err := c.Connect(); err != nil {
		return nil, nil, err
	}
	return c, c.Conn.Close, nil
}

// SetHost sets the agent address. A zero port selects the default 161.
func (s *Session) SetHost(host string, port uint16) {
	if port == 0 {
		port = DefaultPort
	}
	s.host, s.port = host, port
	s.reset()
}

// SetCommunityString sets the community string used for both GET and SET.
func (s *Session) SetCommunityString(community string) {
	s.community = community
	s.reset()
}

// SetTimeout sets the per-try timeout for exchanges.
func (s *Session) SetTimeout(d time.Duration) {
	s.timeout = d
	s.reset()
}

// SetRetries sets how many times an exchange is retried before it fails
// with a TransportError.
func (s *Session) SetRetries(n int) {
	s.retries = n
	s.reset()
}

func (s *Session) reset() {
	if s.closer != nil {
		_ = s.closer()
	}
	s.conn, s.closer = nil, nil
}

// Close releases the UDP association. The Session stays usable; the next
// request dials again.
func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer()
	s.conn, s.closer = nil, nil
	return err
}

// Mibs exposes the MIB lookup service handle.
func (s *Session) Mibs() *Registry { return s.mibs }

// AddMibSearchPath appends path to the MIB search path. A nonexistent path
// fails with PathNotFoundError and leaves the search path unchanged.
func (s *Session) AddMibSearchPath(path string) error {
	log.Info().Str("path", path).Msg("adding MIB search path")
	return s.mibs.AddSearchPath(path)
}

// PreloadMibs eagerly loads the named MIB modules, or every module on the
// search path when no names are given. This keeps per-request resolution
// fast; Get and Set also load modules on demand, so preloading is never
// required for correctness. Preloading all modules can take a while.
func (s *Session) PreloadMibs(names ...string) error {
	if len(names) > 0 {
		log.Info().Strs("mibs", names).Msg("preloading MIBs")
	} else {
		log.Info().Msg("preloading all available MIBs")
	}
	return s.mibs.LoadModules(names...)
}

func (s *Session) connect() (agent, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, closer, err := s.dial(s)
	if err != nil {
		return nil, &TransportError{Indication: err}
	}
	s.conn, s.closer = conn, closer
	return conn, nil
}

// Get performs an SNMP GET for the object named by oidExpr, which may use
// any notation ResolveOID accepts. It blocks until a response arrives or
// the timeout/retry budget is exhausted. A Null returned by the agent is
// surfaced as ObjectNotFoundError, never as a success.
func (s *Session) Get(oidExpr string) (Value, error) {
	if s.host == "" {
		return Null, ErrNotConfigured
	}
	oid, err := ResolveOID(oidExpr, s.mibs)
	if err != nil {
		return Null, err
	}
	conn, err := s.connect()
	if err != nil {
		return Null, err
	}

	getsTotal.Inc()
	start := s.clock.Now()
	packet, err := conn.Get([]string{oid.String()})
	if err != nil {
		return Null, &TransportError{Indication: err}
	}
	requestDuration.UpdateDuration(start)
	if err := checkStatus(packet); err != nil {
		return Null, err
	}
	if len(packet.Variables) == 0 {
		return Null, &TransportError{Indication: fmt.Errorf("response carried no variable bindings")}
	}
	v, err := decodeVariable(packet.Variables[0])
	if err != nil {
		return Null, err
	}
	if v.IsNull() {
		return Null, &ObjectNotFoundError{OID: oid}
	}
	log.Debug().Str("oid", oid.String()).Str("value", v.String()).Msg("GET done")
	return v, nil
}

// Set performs an SNMP SET of value at the object named by oidExpr. The
// value must already carry the type the target object expects; no type is
// inferred from the MIB. Raw inputs go through the typed Set wrappers or
// the ConvertTo helpers first.
func (s *Session) Set(oidExpr string, value Value) error {
	if s.host == "" {
		return ErrNotConfigured
	}
	oid, err := ResolveOID(oidExpr, s.mibs)
	if err != nil {
		return err
	}
	pdu, err := value.pdu(oid)
	if err != nil {
		return err
	}
	conn, err := s.connect()
	if err != nil {
		return err
	}

	setsTotal.Inc()
	start := s.clock.Now()
	packet, err := conn.Set([]gosnmp.SnmpPDU{pdu})
	if err != nil {
		return &TransportError{Indication: err}
	}
	requestDuration.UpdateDuration(start)
	if err := checkStatus(packet); err != nil {
		return err
	}
	log.Debug().Str("oid", oid.String()).Str("value", value.String()).Msg("SET done")
	return nil
}

// SetOctetString converts raw to an OctetString and performs a SET.
func (s *Session) SetOctetString(oidExpr string, raw any) error {
	return s.setConverted(oidExpr, raw, ConvertToOctetString)
}

// SetInteger converts raw to an Integer and performs a SET.
func (s *Session) SetInteger(oidExpr string, raw any) error {
	return s.setConverted(oidExpr, raw, ConvertToInteger)
}

// SetInteger32 converts raw to an Integer32 and performs a SET.
func (s *Session) SetInteger32(oidExpr string, raw any) error {
	return s.setConverted(oidExpr, raw, ConvertToInteger32)
}

// SetCounter32 converts raw to a Counter32 and performs a SET.
func (s *Session) SetCounter32(oidExpr string, raw any) error {
	return s.setConverted(oidExpr, raw, ConvertToCounter32)
}

// SetCounter64 converts raw to a Counter64 and performs a SET.
func (s *Session) SetCounter64(oidExpr string, raw any) error {
	return s.setConverted(oidExpr, raw, ConvertToCounter64)
}

// SetGauge32 converts raw to a Gauge32 and performs a SET.
func (s *Session) SetGauge32(oidExpr string, raw any) error {
	return s.setConverted(oidExpr, raw, ConvertToGauge32)
}

// SetUnsigned32 converts raw to an Unsigned32 and performs a SET.
func (s *Session) SetUnsigned32(oidExpr string, raw any) error {
	return s.setConverted(oidExpr, raw, ConvertToUnsigned32)
}

// SetTimeTicks converts raw to a TimeTicks and performs a SET.
func (s *Session) SetTimeTicks(oidExpr string, raw any) error {
	return s.setConverted(oidExpr, raw, ConvertToTimeTicks)
}

func (s *Session) setConverted(oidExpr string, raw any, convert func(any) (Value, error)) error {
	v, err := convert(raw)
	if err != nil {
		return err
	}
	return s.Set(oidExpr, v)
}

func checkStatus(packet *gosnmp.SnmpPacket) error {
	if packet.Error == gosnmp.NoError {
		return nil
	}
	return &AgentError{
		Status:      int(packet.Error),
		Index:       int(packet.ErrorIndex),
		Description: statusText(packet.Error),
	}
}

var errorStatusText = map[gosnmp.SNMPError]string{
	gosnmp.TooBig:              "too big",
	gosnmp.NoSuchName:          "no such name",
	gosnmp.BadValue:            "bad value",
	gosnmp.ReadOnly:            "read only",
	gosnmp.GenErr:              "general error",
	gosnmp.NoAccess:            "no access",
	gosnmp.WrongType:           "wrong type",
	gosnmp.WrongLength:         "wrong length",
	gosnmp.WrongEncoding:       "wrong encoding",
	gosnmp.WrongValue:          "wrong value",
	gosnmp.NoCreation:          "no creation",
	gosnmp.InconsistentValue:   "inconsistent value",
	gosnmp.ResourceUnavailable: "resource unavailable",
	gosnmp.CommitFailed:        "commit failed",
	gosnmp.UndoFailed:          "undo failed",
	gosnmp.AuthorizationError:  "authorization error",
	gosnmp.NotWritable:         "not writable",
	gosnmp.InconsistentName:    "inconsistent name",
}

func statusText(e gosnmp.SNMPError) string {
	if s, ok := errorStatusText[e]; ok {
		return s
	}
	return fmt.Sprintf("error status %d", int(e))
}
