package risk

// Fixed recommendation tables keyed by tier. The exact strings are part
// of the API contract consumed by the frontend and the PDF reports; do
// not reword them without a coordinated release.

var primaryByTier = map[Tier][]string{
	TierHigh: {
		"Immediate Orthokeratology (Ortho-K) Lens Treatment",
		"High-Dose Atropine Therapy (0.05%)",
		"Urgent Referral for Retinal Examination",
	},
	TierModerate: {
		"Low-Dose Atropine Therapy (0.01%)",
		"Defocus Incorporated Multiple Segments (DIMS) Spectacle Lenses",
		"Increase Outdoor Time to at Least 2 Hours Daily",
	},
	TierLow: {
		"Maintain Regular Outdoor Activity",
		"Annual Comprehensive Eye Examination",
		"Balanced Screen-Time Habits",
	},
}

var secondaryByTier = map[Tier][]string{
	TierHigh: {
		"Strict Limitation of Near-Work Sessions",
		"Follow-up Axial Length Measurement Every 3 Months",
		"Counsel Family on Progression Risks",
	},
	TierModerate: {
		"20-20-20 Near-Work Breaks",
		"Follow-up Axial Length Measurement Every 6 Months",
		"Monitor Refraction Change Each Visit",
	},
	TierLow: {
		"Ensure Proper Reading Distance and Lighting",
		"Encourage Frequent Visual Breaks During Study",
		"Re-Evaluate if Vision Complaints Appear",
	},
}

func primaryRecommendations(t Tier) []string {
	return cloneList(primaryByTier[t])
}

func secondaryRecommendations(t Tier) []string {
	return cloneList(secondaryByTier[t])
}

// Callers get their own copy so the tables stay immutable.
func cloneList(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}
