package migrations

import "embed"

//go:embed scheduler/*.sql
var SchedulerFS embed.FS
