package evt

func (e CommandComplete) NumHCICommandPackets() uint8 {
	v, _ := e.NumHCICommandPacketsWErr()
	return v
}

func (e CommandComplete) CommandOpcode() uint16 {
	v, _ := e.CommandOpcodeWErr()
	return v
}

func (e CommandComplete) ReturnParameters() []byte {
	v, _ := e.ReturnParametersWErr()
	return v
}

func (e CommandStatus) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e CommandStatus) NumHCICommandPackets() uint8 {
	v, _ := e.NumHCICommandPacketsWErr()
	return v
}

func (e CommandStatus) CommandOpcode() uint16 {
	v, _ := e.CommandOpcodeWErr()
	return v
}

func (e LEAdvertisingReport) SubeventCode() uint8 {
	v, _ := e.SubeventCodeWErr()
	return v
}

func (e LEAdvertisingReport) NumReports() uint8 {
	v, _ := e.NumReportsWErr()
	return v
}

func (e LEAdvertisingReport) EventType(i int) uint8 {
	v, _ := e.EventTypeWErr(i)
	return v
}

func (e LEAdvertisingReport) AddressType(i int) uint8 {
	v, _ := e.AddressTypeWErr(i)
	return v
}

func (e LEAdvertisingReport) Address(i int) [6]byte {
	v, _ := e.AddressWErr(i)
	return v
}

func (e LEAdvertisingReport) LengthData(i int) uint8 {
	v, _ := e.LengthDataWErr(i)
	return v
}

func (e LEAdvertisingReport) Data(i int) []byte {
	v, _ := e.DataWErr(i)
	return v
}

func (e LEAdvertisingReport) RSSI(i int) int8 {
	v, _ := e.RSSIWErr(i)
	return v
}
