package enums

// ConnectionState is the lifecycle of the remote mirror connection.
type ConnectionState string

const (
	ConnectionStateUnconfigured ConnectionState = "unconfigured"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateReady        ConnectionState = "ready"
	ConnectionStateError        ConnectionState = "error"
)

// String implements fmt.Stringer.
func (c ConnectionState) String() string {
	return string(c)
}
