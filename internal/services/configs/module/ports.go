package module

import dom "warden/internal/services/configs/domain"

// Ports holds the ports exposed by the configs module
type Ports struct {
	Store dom.StorePort
	Admin dom.AdminPort
}
