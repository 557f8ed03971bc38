package domain

import "context"

// Capabilities records which optional plugins are active on the site
type Capabilities struct {
	JetEngine    bool
	Elementor    bool
	YITHWishlist bool
}

type CapabilityProbe interface {
	Probe(ctx context.Context) (Capabilities, error)
}
