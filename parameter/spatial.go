package parameter

import "time"

// Spatial Index
const (
	SpatialCellSize        = 96.0
	SpatialRefreshInterval = 100 * time.Millisecond
)
