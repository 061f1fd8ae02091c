package risk

import "github.com/evergreenbh/intake/internal/domain"

// Category is one tier-assigned group of phrases. Tables are immutable
// after startup; tests may substitute a table via NewClassifier.
type Category struct {
	Name    string
	Tier    domain.RiskLevel
	Phrases []string
}

// Table is a versioned phrase table plus the severity-amplifying modifiers
// that escalate medium-tier matches to high.
type Table struct {
	Version    string
	Categories []Category
	Modifiers  []string
}

// DefaultTable is the production phrase table. Tier overlap resolves to the
// higher tier; critical always wins outright.
var DefaultTable = Table{
	Version: "2024.1",
	Categories: []Category{
		{
			Name: "suicidal_intent",
			Tier: domain.RiskCritical,
			Phrases: []string{
				"kill myself",
				"killing myself",
				"end my life",
				"ending my life",
				"end it all",
				"take my own life",
				"want to die",
				"wish i was dead",
				"wish i were dead",
				"better off dead",
				"suicide",
				"suicidal",
				"not want to be alive",
				"don't want to be alive",
				"dont want to be alive",
			},
		},
		{
			Name: "self_harm",
			Tier: domain.RiskCritical,
			Phrases: []string{
				"hurt myself",
				"hurting myself",
				"harm myself",
				"harming myself",
				"cut myself",
				"cutting myself",
				"self harm",
				"self-harm",
			},
		},
		{
			Name: "harm_to_others",
			Tier: domain.RiskHigh,
			Phrases: []string{
				"hurt someone",
				"hurt somebody",
				"kill someone",
				"kill somebody",
				"hurt other people",
			},
		},
		{
			Name: "hopelessness",
			Tier: domain.RiskHigh,
			Phrases: []string{
				"no reason to live",
				"nothing to live for",
				"no way out",
				"can't go on",
				"cant go on",
				"give up on everything",
			},
		},
		{
			Name: "despair",
			Tier: domain.RiskMedium,
			Phrases: []string{
				"hopeless",
				"worthless",
				"hate myself",
				"hate my life",
				"can't take it anymore",
				"cant take it anymore",
				"everything is pointless",
				"no one would miss me",
				"nobody would miss me",
			},
		},
		{
			Name: "distress",
			Tier: domain.RiskLow,
			Phrases: []string{
				"so sad",
				"really sad",
				"very sad",
				"feel sad",
				"feeling sad",
				"depressed",
				"miserable",
				"feel empty",
				"feeling empty",
				"crying a lot",
				"feel alone",
				"feeling alone",
				"so lonely",
			},
		},
	},
	// Temporal absolutes, certainty markers, and intensifiers. Any one of
	// these escalates a medium-tier match to high.
	Modifiers: []string{
		"every day",
		"every single day",
		"every night",
		"all the time",
		"always",
		"constantly",
		"going to",
		"i will",
		"definitely",
		"for sure",
		"so much",
		"completely",
		"totally",
	},
}
