package catalog

// SeedAssessments is the minimal built-in catalog used when scraping yields nothing
// and seeding is enabled.
func SeedAssessments() []Assessment {
	return []Assessment{
		{
			Name:            "Verify Interactive",
			URL:             "https://www.shl.com/solutions/products/verify-interactive/",
			Description:     "Adaptive cognitive ability tests measuring numerical, deductive and inductive reasoning.",
			RemoteTesting:   true,
			AdaptiveSupport: true,
			Duration:        "10-15 minutes",
			TestType:        "Cognitive ability",
		},
		{
			Name:            "Occupational Personality Questionnaire (OPQ)",
			URL:             "https://www.shl.com/solutions/products/opq-personality-test/",
			Description:     "Personality questionnaire describing behavioural style at work.",
			RemoteTesting:   true,
			AdaptiveSupport: false,
			Duration:        "25-40 minutes",
			TestType:        "Personality assessment",
		},
	}
}
