package entity

// Role is a recognised semantic-layer role.
type Role string

const (
	RoleAxis            Role = "AXIS"
	RoleColumn          Role = "COLUMN"
	RoleWall            Role = "WALL"
	RoleBeam            Role = "BEAM"
	RoleBeamLabel       Role = "BEAM_LABEL"
	RoleBeamInSituLabel Role = "BEAM_IN_SITU_LABEL"
	RoleViewportTitle   Role = "VIEWPORT_TITLE"
)

// LayerMap maps raw CAD layer names to the roles they play. A layer name
// may be absent from the map, meaning it plays no recognised structural
// role (decorative layers, dimension layers not used for axis grids, etc).
type LayerMap map[string][]Role

// HasRole reports whether layer is mapped to role.
func (m LayerMap) HasRole(layer string, role Role) bool {
	for _, r := range m[layer] {
		if r == role {
			return true
		}
	}
	return false
}

// LayersWithRole returns every layer name mapped to role, in map iteration
// order made deterministic by the caller sorting the result if needed.
func (m LayerMap) LayersWithRole(role Role) []string {
	var out []string
	for layer, roles := range m {
		for _, r := range roles {
			if r == role {
				out = append(out, layer)
				break
			}
		}
	}
	return out
}
