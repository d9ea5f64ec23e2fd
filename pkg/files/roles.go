package files

// Role names an optional auxiliary input. Its value is also the config.json key
// the input is read from.
type Role string

const (
	RoleCrosstalk   Role = "crosstalk"
	RoleCalibration Role = "calibration"
	RoleEvents      Role = "events"
	RoleHeadshape   Role = "headshape"
	RoleChannels    Role = "channels"
	RoleDestination Role = "destination"
)

// Roles is the fixed optional-file vocabulary, in processing order.
var Roles = []Role{
	RoleCrosstalk,
	RoleCalibration,
	RoleEvents,
	RoleHeadshape,
	RoleChannels,
	RoleDestination,
}

var destNames = map[Role]string{
	RoleCrosstalk:   "crosstalk_meg.fif",
	RoleCalibration: "calibration_meg.dat",
	RoleEvents:      "events.tsv",
	RoleHeadshape:   "headshape.pos",
	RoleChannels:    "channels.tsv",
	RoleDestination: "destination.fif",
}

var labels = map[Role]string{
	RoleCrosstalk:   "cross-talk",
	RoleCalibration: "calibration",
	RoleEvents:      "events",
	RoleHeadshape:   "headshape",
	RoleChannels:    "channels",
	RoleDestination: "destination",
}

// DestName is the canonical file name a role is copied to.
func (r Role) DestName() string { return destNames[r] }

// Label is the human-readable name used in report messages.
func (r Role) Label() string { return labels[r] }

// OverrideKey is the config key whose file, when it exists, replaces the base
// input. Roles without an override return "".
func (r Role) OverrideKey() string {
	switch r {
	case RoleEvents, RoleHeadshape, RoleChannels, RoleDestination:
		return string(r) + "_override"
	}
	return ""
}

// OptionalFiles records which optional inputs a run received. It is built once
// and read-only afterwards.
type OptionalFiles struct {
	paths map[Role]string

	// Missing lists roles that were configured but whose file does not exist.
	Missing []Role
}

// NewOptionalFiles builds a descriptor from explicit paths; empty paths are
// treated as absent.
func NewOptionalFiles(paths map[Role]string) OptionalFiles {
	out := OptionalFiles{paths: make(map[Role]string, len(paths))}
	for role, p := range paths {
		if p != "" {
			out.paths[role] = p
		}
	}
	return out
}

// Path returns the source path of role, if present.
func (o OptionalFiles) Path(role Role) (string, bool) {
	p, ok := o.paths[role]
	return p, ok
}

// Present lists the supplied roles in vocabulary order.
func (o OptionalFiles) Present() []Role {
	out := make([]Role, 0, len(o.paths))
	for _, role := range Roles {
		if _, ok := o.paths[role]; ok {
			out = append(out, role)
		}
	}
	return out
}

// Map returns a copy of the role -> path mapping, absent roles included as "".
func (o OptionalFiles) Map() map[string]string {
	out := make(map[string]string, len(Roles))
	for _, role := range Roles {
		out[string(role)] = o.paths[role]
	}
	return out
}
