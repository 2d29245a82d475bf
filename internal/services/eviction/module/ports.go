package module

import dom "warden/internal/services/eviction/domain"

// Ports holds the ports exposed by the eviction module
type Ports struct {
	Evictor   dom.EvictorPort
	Runs      dom.RunsPort
	Scheduler dom.SchedulerPort
}
