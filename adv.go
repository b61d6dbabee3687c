package ble

// ServiceData is the payload of a service data field in an advertising
// packet, keyed by the service UUID.
type ServiceData struct {
	UUID UUID
	Data []byte
}
