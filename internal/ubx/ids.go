package ubx

// Message classes.
const (
	ClassNAV byte = 0x01
	ClassRXM byte = 0x02
	ClassACK byte = 0x05
	ClassCFG byte = 0x06
	ClassMON byte = 0x0A
	ClassTIM byte = 0x0D
)

// ACK ids.
const (
	AckNak byte = 0x00
	AckAck byte = 0x01
)

// CFG ids.
const (
	CfgPRT    byte = 0x00
	CfgMSG    byte = 0x01
	CfgRST    byte = 0x04
	CfgCFG    byte = 0x09
	CfgTP5    byte = 0x31
	CfgGNSS   byte = 0x3E
	CfgVALSET byte = 0x8A
)

// NAV ids.
const (
	NavPOSLLH  byte = 0x02
	NavSOL     byte = 0x06
	NavPVT     byte = 0x07
	NavVELNED  byte = 0x12
	NavTIMEUTC byte = 0x21
	NavSAT     byte = 0x35
)

// RXM ids.
const (
	RxmRAWX byte = 0x15
)

// MON ids.
const (
	MonVER byte = 0x04
	MonHW  byte = 0x09
)

// TIM ids.
const (
	TimTP byte = 0x01
)
