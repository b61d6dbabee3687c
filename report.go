package ble

// EventType is the advertising PDU type carried in an advertising report
// [Vol 2, Part E, 7.7.65.2].
type EventType uint8

const (
	EventTypeAdvInd        EventType = 0x00 // connectable undirected advertising (ADV_IND)
	EventTypeAdvDirectInd  EventType = 0x01 // connectable directed advertising (ADV_DIRECT_IND)
	EventTypeAdvScanInd    EventType = 0x02 // scannable undirected advertising (ADV_SCAN_IND)
	EventTypeAdvNonconnInd EventType = 0x03 // non-connectable undirected advertising (ADV_NONCONN_IND)
	EventTypeScanRsp       EventType = 0x04 // scan response (SCAN_RSP)
)

// Connectable reports whether the advertiser accepts connections.
func (t EventType) Connectable() bool {
	return t == EventTypeAdvInd || t == EventTypeAdvDirectInd
}

// Scannable reports whether the advertiser answers scan requests.
func (t EventType) Scannable() bool {
	return t == EventTypeAdvInd || t == EventTypeAdvScanInd
}

// AddressType distinguishes public device addresses from random ones.
type AddressType uint8

const (
	AddressTypePublic AddressType = 0x00
	AddressTypeRandom AddressType = 0x01
)

func (t AddressType) String() string {
	if t == AddressTypeRandom {
		return "random"
	}
	return "public"
}

// RSSIUnavailable is the RSSI value controllers report when no
// measurement is available for a report [Vol 2, Part E, 7.7.65.2].
const RSSIUnavailable int8 = 127

// A Report is a single advertising report, unpacked from the batch the
// controller delivered it in. Data is the raw advertising payload; it
// is owned by the report and safe to retain.
type Report struct {
	EventType   EventType
	AddressType AddressType
	Addr        Addr
	Data        []byte
	RSSI        int8
}

// ReportMapKeys lists the keys used by Report.ToMap.
var ReportMapKeys = struct {
	MAC         string
	AddressType string
	EventType   string
	Connectable string
	RSSI        string
	Data        string
}{
	MAC:         "mac",
	AddressType: "addressType",
	EventType:   "eventType",
	Connectable: "connectable",
	RSSI:        "rssi",
	Data:        "data",
}

// ToMap flattens the report for serialization and display.
func (r Report) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		ReportMapKeys.MAC:         r.Addr.String(),
		ReportMapKeys.AddressType: r.AddressType.String(),
		ReportMapKeys.EventType:   uint8(r.EventType),
		ReportMapKeys.Connectable: r.EventType.Connectable(),
		ReportMapKeys.Data:        r.Data,
	}
	if r.RSSI != RSSIUnavailable {
		m[ReportMapKeys.RSSI] = r.RSSI
	}
	return m
}
