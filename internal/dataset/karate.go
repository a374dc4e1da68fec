package dataset

import (
	"strconv"

	"github.com/vanshika/peoplegraph/internal/domain"
)

// KarateClubName labels the built-in fallback dataset.
const KarateClubName = "Zachary Karate Club"

// karateAdjacency lists Zachary's karate club friendships (34 members, 78
// ties) as member -> higher-numbered friends, members numbered from 0.
var karateAdjacency = [][]int{
	0:  {1, 2, 3, 4, 5, 6, 7, 8, 10, 11, 12, 13, 17, 19, 21, 31},
	1:  {2, 3, 7, 13, 17, 19, 21, 30},
	2:  {3, 7, 8, 9, 13, 27, 28, 32},
	3:  {7, 12, 13},
	4:  {6, 10},
	5:  {6, 10, 16},
	6:  {16},
	8:  {30, 32, 33},
	9:  {33},
	13: {33},
	14: {32, 33},
	15: {32, 33},
	18: {32, 33},
	19: {33},
	20: {32, 33},
	22: {32, 33},
	23: {25, 27, 29, 32, 33},
	24: {25, 27, 31},
	25: {31},
	26: {29, 33},
	27: {33},
	28: {31, 33},
	29: {32, 33},
	30: {32, 33},
	31: {32, 33},
	32: {33},
	33: nil,
}

// KarateClub returns the karate club graph, used whenever the configured
// source cannot be loaded.
func KarateClub() domain.SocialGraph {
	sg := domain.SocialGraph{
		Name:  KarateClubName,
		Users: make([]string, len(karateAdjacency)),
	}
	for member, friends := range karateAdjacency {
		sg.Users[member] = strconv.Itoa(member)
		for _, f := range friends {
			sg.Friendships = append(sg.Friendships, domain.Friendship{
				Source: strconv.Itoa(member),
				Target: strconv.Itoa(f),
			})
		}
	}
	return sg
}
