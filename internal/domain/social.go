package domain

// Friendship is an undirected connection between two users.
type Friendship struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// SocialGraph is the portable form of a friendship graph as read from a file
// or a graph database. Users may list people without any friendship.
type SocialGraph struct {
	Name        string       `json:"name" yaml:"name"`
	Users       []string     `json:"users,omitempty" yaml:"users,omitempty"`
	Friendships []Friendship `json:"friendships" yaml:"friendships"`
}
