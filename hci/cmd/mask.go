package cmd

// Event mask bits for SetEventMask [Vol 2, Part E, 7.3.1]. Command
// Complete and Command Status are delivered regardless of the mask.
const (
	EventMaskDisconnectionComplete uint64 = 1 << 4
	EventMaskEncryptionChange      uint64 = 1 << 7
	EventMaskHardwareError         uint64 = 1 << 15
	EventMaskDataBufferOverflow    uint64 = 1 << 25
	EventMaskEncryptionKeyRefresh  uint64 = 1 << 47
	EventMaskLEMeta                uint64 = 1 << 61

	// EventMaskDefault is the controller power-on mask.
	EventMaskDefault uint64 = 0x00001fffffffffff
)

// LE event mask bits for LESetEventMask [Vol 2, Part E, 7.8.1].
const (
	LEEventMaskConnectionComplete         uint64 = 1 << 0
	LEEventMaskAdvertisingReport          uint64 = 1 << 1
	LEEventMaskConnectionUpdateComplete   uint64 = 1 << 2
	LEEventMaskReadRemoteFeaturesComplete uint64 = 1 << 3
	LEEventMaskLongTermKeyRequest         uint64 = 1 << 4

	// LEEventMaskDefault is the controller power-on LE mask.
	LEEventMaskDefault uint64 = 0x000000000000001f
)
