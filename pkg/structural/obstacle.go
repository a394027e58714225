package structural

import "github.com/archiforge/cadrecon/pkg/geomx"

// Obstacle is anything that can interrupt a beam or wall's longitudinal
// extent: columns act as obstacles for walls and beams, walls act as
// obstacles for beams.
type Obstacle interface {
	ObstacleBounds() geomx.Bounds
}
