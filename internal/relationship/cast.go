package relationship

import "github.com/easeaico/pet-village/internal/types"

// DefaultCast is the fixed village cast seeded at initialization.
var DefaultCast = []types.NPC{
	{Name: "Luna", Personality: "romantic", Role: "farmer", Temper: 30},
	{Name: "Marcus", Personality: "ambitious", Role: "builder", Temper: 70},
	{Name: "Felix", Personality: "aggressive", Role: "guard", Temper: 90},
	{Name: "Aria", Personality: "mysterious", Role: "trader", Temper: 20},
	{Name: "Thorne", Personality: "wise", Role: "elder", Temper: 10},
}

// Names returns the cast names in order.
func Names(cast []types.NPC) []string {
	names := make([]string, 0, len(cast))
	for _, npc := range cast {
		names = append(names, npc.Name)
	}
	return names
}

// Pairs returns every unordered pair of cast members in stored order.
func Pairs(cast []types.NPC) [][2]string {
	var pairs [][2]string
	for i := 0; i < len(cast); i++ {
		for j := i + 1; j < len(cast); j++ {
			a, b := types.PairKey(cast[i].Name, cast[j].Name)
			pairs = append(pairs, [2]string{a, b})
		}
	}
	return pairs
}
