package models

import (
	"sync"

	"github.com/Zahlii/godslr/types"
)

var (
	selfDeviceMu sync.RWMutex
	selfDevice   *types.AnnounceMessage
)

// SetSelfDevice sets the local device info served by the status endpoint.
func SetSelfDevice(device *types.AnnounceMessage) {
	selfDeviceMu.Lock()
	defer selfDeviceMu.Unlock()
	selfDevice = device
}

func GetSelfDevice() *types.AnnounceMessage {
	selfDeviceMu.RLock()
	defer selfDeviceMu.RUnlock()
	if selfDevice == nil {
		return nil
	}
	copied := *selfDevice
	return &copied
}
