package remote

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FaultKind classifies why a host could not be queried.
type FaultKind int

const (
	// TransportFault covers I/O failures once a connection was attempted.
	TransportFault FaultKind = iota
	// Unreachable means the host did not answer the liveness probe or refused the connection.
	Unreachable
	// AccessDenied means the credentials were rejected.
	AccessDenied
	// SecurityFault covers TLS and host-key verification failures.
	SecurityFault
)

var (
	ErrUnreachable  = errors.New("host unreachable")
	ErrAccessDenied = errors.New("access denied")
	ErrTransport    = errors.New("transport error")
	ErrSecurity     = errors.New("security error")
)

func (k FaultKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case AccessDenied:
		return "access_denied"
	case SecurityFault:
		return "security"
	default:
		return "transport"
	}
}

func (k FaultKind) sentinel() error {
	switch k {
	case Unreachable:
		return ErrUnreachable
	case AccessDenied:
		return ErrAccessDenied
	case SecurityFault:
		return ErrSecurity
	default:
		return ErrTransport
	}
}

// Fault is a host-scoped failure. It matches its kind's sentinel with errors.Is.
type Fault struct {
	Kind FaultKind
	Host string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Host, f.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", f.Host, f.Kind.sentinel(), f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

func (f *Fault) Is(target error) bool { return target == f.Kind.sentinel() }

// UserMessage is the short text shown to an operator for this fault.
func (f *Fault) UserMessage() string {
	switch f.Kind {
	case Unreachable:
		return "Could not connect to other computer"
	case AccessDenied:
		return "You do not have permission to open this computer"
	case SecurityFault:
		return "Security error while connecting"
	default:
		return "Error connecting to computer or another IO Error"
	}
}

// NewFault builds a Fault of the given kind.
func NewFault(kind FaultKind, host string, err error) *Fault {
	return &Fault{Kind: kind, Host: host, Err: err}
}

// Classify turns a transport error into a Fault. Errors that already are a
// Fault pass through unchanged; nil stays nil.
func Classify(host string, err error) error {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return &Fault{Kind: kindOf(err), Host: host, Err: err}
}

// UserMessage returns the operator text for err, falling back to its string
// form when err is not a Fault.
func UserMessage(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.UserMessage()
	}
	return err.Error()
}

func kindOf(err error) FaultKind {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		certInvalid      x509.CertificateInvalidError
		opErr            *net.OpError
		dnsErr           *net.DNSError
	)
	switch {
	case errors.As(err, &unknownAuthority), errors.As(err, &hostnameErr), errors.As(err, &certInvalid):
		return SecurityFault
	case errors.As(err, &dnsErr):
		return Unreachable
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return Unreachable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "error: 401"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "access is denied"),
		strings.Contains(msg, "unable to authenticate"):
		return AccessDenied
	case strings.Contains(msg, "x509"),
		strings.Contains(msg, "tls:"),
		strings.Contains(msg, "knownhosts"),
		strings.Contains(msg, "host key"):
		return SecurityFault
	}
	return TransportFault
}
