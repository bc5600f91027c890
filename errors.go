package snmpkit

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when a request is attempted before SetHost
// has been called. No transport exchange is made in that case.
var ErrNotConfigured = errors.New("snmp: no host configured")

// PathNotFoundError reports an AddMibSearchPath call with a directory that
// does not exist. The search path is left unchanged.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("snmp: MIB path %q does not exist", e.Path)
}

// UnknownSymbolError reports a symbolic OID component that could not be
// resolved in any loaded MIB module. A Symbol of "" means the module itself
// was not found on the search path.
type UnknownSymbolError struct {
	Module string
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	switch {
	case e.Symbol == "" && e.Module != "":
		return fmt.Sprintf("snmp: MIB module %q not found in search path", e.Module)
	case e.Module == "":
		return fmt.Sprintf("snmp: unknown symbol %q", e.Symbol)
	default:
		return fmt.Sprintf("snmp: unknown symbol %s::%s", e.Module, e.Symbol)
	}
}

// RangeError reports a value outside the declared domain of its SNMP type,
// e.g. a negative Counter32 or an Integer32 beyond 32 bits.
type RangeError struct {
	Type  Type
	Value string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("snmp: value %s out of range for %s", e.Value, e.Type)
}

// FormatError reports a raw value that cannot be coerced to the
// representation an SNMP type requires, e.g. a non-numeric string for
// Counter64.
type FormatError struct {
	Type  Type
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("snmp: cannot convert %q to %s", e.Value, e.Type)
}

// TransportError reports a UDP-level failure or timeout. The underlying
// indication is available via Unwrap.
type TransportError struct {
	Indication error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("snmp: request failed: %v", e.Indication)
}

func (e *TransportError) Unwrap() error { return e.Indication }

// AgentError reports a non-zero error status in an otherwise well-formed
// response from the agent.
type AgentError struct {
	Status      int
	Index       int
	Description string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("snmp: agent reported %s (status %d, index %d)", e.Description, e.Status, e.Index)
}

// ObjectNotFoundError reports a GET that resolved and completed but for
// which the agent returned the distinguished Null value.
type ObjectNotFoundError struct {
	OID OID
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("snmp: object with OID %q not found", e.OID.String())
}
