// Package catalog loads the designer-authored project set that seeds the
// asteroid field. Projects are written as YAML and validated on load; the
// JSON schema emitted by cmd/schema keeps editors honest.
package catalog

import "driftfield/server/internal/field"

// DefaultColor is the palette fallback for unknown or missing colors.
const DefaultColor = "slate"

var palette = map[string]struct{}{
	"slate":  {},
	"amber":  {},
	"teal":   {},
	"violet": {},
	"rose":   {},
	"copper": {},
}

// ValidColor reports whether the color names a palette entry.
func ValidColor(color string) bool {
	_, ok := palette[color]
	return ok
}

// Links collects the outbound URLs shown on a project caption.
type Links struct {
	Demo   string `yaml:"demo,omitempty" json:"demo,omitempty" jsonschema:"title=Demo URL,format=uri"`
	GitHub string `yaml:"github,omitempty" json:"github,omitempty" jsonschema:"title=Repository URL,format=uri"`
}

// Asteroid places a project inside the field: normalized coordinates, the
// body diameter in pixels, and a palette color.
type Asteroid struct {
	X     float64 `yaml:"x" json:"x" jsonschema:"title=Normalized X,description=Horizontal placement in the range 0 to 1.,minimum=0,maximum=1,required"`
	Y     float64 `yaml:"y" json:"y" jsonschema:"title=Normalized Y,description=Vertical placement in the range 0 to 1.,minimum=0,maximum=1,required"`
	Size  float64 `yaml:"size" json:"size" jsonschema:"title=Diameter,description=Body diameter in pixels.,exclusiveMinimum=0,required"`
	Color string  `yaml:"color,omitempty" json:"color,omitempty" jsonschema:"title=Palette Color,enum=slate,enum=amber,enum=teal,enum=violet,enum=rose,enum=copper"`
}

// Project is one portfolio entry as it appears on disk.
type Project struct {
	ID          string   `yaml:"id" json:"id" jsonschema:"title=Project ID,description=Stable identifier used for seeding and selection.,pattern=^[a-z0-9-]+$,minLength=1,required"`
	Name        string   `yaml:"name" json:"name" jsonschema:"title=Display Name,required"`
	Tagline     string   `yaml:"tagline,omitempty" json:"tagline,omitempty" jsonschema:"title=Tagline"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"title=Description"`
	Tech        []string `yaml:"tech,omitempty" json:"tech,omitempty" jsonschema:"title=Technologies"`
	Links       Links    `yaml:"links,omitempty" json:"links,omitempty" jsonschema:"title=Links"`
	Impact      []string `yaml:"impact,omitempty" json:"impact,omitempty" jsonschema:"title=Impact Notes"`
	Asteroid    Asteroid `yaml:"asteroid" json:"asteroid" jsonschema:"title=Asteroid Placement,required"`
}

// FieldSpecs converts projects into the seeding specs the field consumes.
func FieldSpecs(projects []Project) []field.Spec {
	specs := make([]field.Spec, 0, len(projects))
	for _, p := range projects {
		specs = append(specs, field.Spec{
			ID:    p.ID,
			NormX: p.Asteroid.X,
			NormY: p.Asteroid.Y,
			Size:  p.Asteroid.Size,
			Color: p.Asteroid.Color,
		})
	}
	return specs
}
