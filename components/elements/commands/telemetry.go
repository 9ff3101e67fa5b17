package commands

import "github.com/goliatone/go-matter-elements/components/elements"

// Telemetry is the element telemetry sink the commands record to.
type Telemetry = elements.Telemetry
