package ble

// ReportCache persists the last advertising report seen per device
// address across runs.
type ReportCache interface {
	// Store saves the report keyed by its address. When replace is
	// false and an entry already exists, Store fails.
	Store(r Report, replace bool) error
	Load(a Addr) (Report, error)
	Clear() error
}
