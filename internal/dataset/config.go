package dataset

// Config drives the synthetic social graph generator.
type Config struct {
	Name string
	// NumUsers is the number of people in the graph.
	NumUsers int
	// Communities splits users into groups that befriend each other densely.
	Communities int
	// IntraChance is the probability that two members of one community are friends.
	IntraChance float64
	// CrossLinksPerUser is the mean number of friendships across communities.
	CrossLinksPerUser float64
	// IsolatedChance is the share of users left without any friendship.
	IsolatedChance float64
	IDPrefix       string
	Seed           int64
}

// DefaultConfig returns settings producing a sparse graph with clear
// community structure, similar in shape to ego-network samples.
func DefaultConfig() Config {
	return Config{
		Name:              "synthetic",
		NumUsers:          1000,
		Communities:       25,
		IntraChance:       0.2,
		CrossLinksPerUser: 0.5,
		IsolatedChance:    0.01,
		Seed:              42,
	}
}
