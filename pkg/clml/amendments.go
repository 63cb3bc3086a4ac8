package clml

// extractAmendments collects unapplied effects from the metadata block and
// legacy leg:Amendment elements, in document order.
func extractAmendments(root Node, metadata Node) []Amendment {
	var amendments []Amendment

	if metadata != nil {
		for _, effect := range findAll(metadata, ukmUnappliedEffect) {
			amendment := Amendment{
				ID:                 effect.Attr("EffectId"),
				Type:               effect.Attr("Type"),
				Date:               firstNonEmpty(effect.Attr("Modified"), effect.Attr("AppliedModified")),
				AffectingURI:       effect.Attr("AffectingURI"),
				AffectedProvisions: effect.Attr("AffectedProvisions"),
			}
			if title := firstChild(effect, ukmAffectingTitle); title != nil {
				amendment.Description = TextContent(title)
			}
			if amendment.Description == "" {
				amendment.Description = effect.Attr("AffectingProvisions")
			}
			amendments = append(amendments, amendment)
		}
	}

	for _, legacy := range findAll(root, legAmendment) {
		amendment := Amendment{
			ID:   legacy.Attr("id"),
			Type: legacy.Attr("type"),
		}
		if date := findFirst(legacy, legDate); date != nil {
			amendment.Date = TextContent(date)
		}
		if description := findFirst(legacy, legDescription); description != nil {
			amendment.Description = TextContent(description)
		}
		amendments = append(amendments, amendment)
	}

	return amendments
}
