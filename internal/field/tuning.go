package field

// Silhouette shape. Each asteroid is a ring of vertices whose radii wobble
// with two sine terms keyed by a per-body phase, organic but still convex
// enough to hull cleanly.
const (
	silhouetteVertices    = 18
	wobbleAmpPrimary      = 0.16
	wobbleAmpSecondary    = 0.10
	wobbleHarmonicPrimary = 3
	wobbleHarmonicSecond  = 7
	wobblePhaseSpread     = 2.1
)

// Caption geometry. Widths and heights are fixed per breakpoint so the
// collider stays stable while text reflows client-side.
const (
	labelWidthDesktop  = 280.0
	labelHeightDesktop = 44.0
	labelWidthCompact  = 240.0
	labelHeightCompact = 40.0
	compactBreakpoint  = 768.0
)

// LabelGap is the vertical space between a body's silhouette and the top of
// its caption. Exported because the join payload tells clients where to
// place DOM captions.
const LabelGap = 8.0

// Containment. Bodies stay inside the padded frame and out of the lower
// band of the page, which the site reserves for other content.
const (
	edgePadding     = 24.0
	depthLimitRatio = 0.72
)

// Resolution. Restitution stays near one so the field keeps drifting
// instead of grinding to a halt; the slack leaves a visible gap after each
// separation so re-solving an already settled field is a no-op.
const (
	separationSlack = 0.5
	bodyRestitution = 0.96
	wallRestitution = 0.55
	frictionCoeff   = 0.08
	frictionEpsilon = 1e-8
	steadyPasses    = 2
	settleMaxPasses = 90
	settleEpsilon   = 0.05
)

// Motion seeds, in pixels (or degrees) per nominal frame.
const (
	driftSpeedMin = 0.05
	driftSpeedMax = 0.15
	spinSpeedMin  = 0.02
	spinSpeedMax  = 0.10
)

const hitPadding = 10.0

// DefaultSeed is the root seed used when a hub is started without one.
const DefaultSeed = "driftfield"
