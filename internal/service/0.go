package service

import "github.com/google/wire"

var Provider = wire.NewSet(
	NewTaskService,
	NewResultService,
	NewEnvironmentService,
	NewLogAuditSink,
)
