package markdowncmd

// FeatureGates exposes runtime toggles checked before a handler runs. A nil
// closure means enabled.
type FeatureGates struct {
	MarkdownEnabled func() bool
}

func (g FeatureGates) markdownEnabled() bool {
	if g.MarkdownEnabled == nil {
		return true
	}
	return g.MarkdownEnabled()
}
