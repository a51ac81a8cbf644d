package worker

import (
	"github.com/spec-kit/servicedesk/internal/service"
)

// StartEventWorkers subscribes the audit and notification handlers to the
// services' dispatcher. Call it once per Services value.
func StartEventWorkers(services *service.Services) {
	if services == nil {
		return
	}
	if services.Audit != nil {
		services.Audit.RegisterHandlers()
	}
	if services.Notifications != nil {
		services.Notifications.RegisterHandlers()
	}
}
