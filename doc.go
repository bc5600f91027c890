// Package snmpkit is an SNMP v2c client with symbolic OID resolution.
//
// A Session performs GET and SET exchanges against a remote agent over UDP.
// OID expressions may be numeric, module-qualified symbolic, bare symbolic,
// or a mix, and are resolved against a Registry of flattened MIB modules
// found on an ordered search path:
//
//	s := snmpkit.NewSession(nil)
//	s.SetHost("10.0.111.112", 0)
//	s.SetCommunityString("private")
//	s.AddMibSearchPath("/usr/share/snmp/flat-mibs")
//	s.PreloadMibs("SNMPv2-MIB")
//
//	descr, err := s.Get("SNMPv2-MIB::sysDescr.0")
//	...
//	err = s.SetOctetString(".1.3.6.1.2.1.1.6.0", "rack 4")
//
// Values are tagged with the constrained SNMP types (OctetString, Integer,
// Integer32, Counter32, Counter64, Gauge32, Unsigned32, TimeTicks) and
// range-checked on conversion. Every failure is one of the typed errors in
// this package; a GET answered with the protocol's Null is reported as
// ObjectNotFoundError rather than returned as a value.
package snmpkit
