package ledger

// Building is a closed set of constructible building types.
type Building uint8

const (
	Woodcutter Building = iota
	Farm
	Quarry
	IronMine
	Market
	Library
	Temple
	Smithy

	NumBuildings = int(Smithy) + 1
)

var buildingNames = [NumBuildings]string{
	Woodcutter: "woodcutter",
	Farm:       "farm",
	Quarry:     "quarry",
	IronMine:   "iron_mine",
	Market:     "market",
	Library:    "library",
	Temple:     "temple",
	Smithy:     "smithy",
}

// AllBuildings returns every building in stable order.
func AllBuildings() []Building {
	out := make([]Building, NumBuildings)
	for i := range out {
		out[i] = Building(i)
	}
	return out
}

func (b Building) Valid() bool { return int(b) < NumBuildings }

func (b Building) String() string {
	if !b.Valid() {
		return "unknown"
	}
	return buildingNames[b]
}

func ParseBuilding(s string) (Building, bool) {
	for i, n := range buildingNames {
		if n == s {
			return Building(i), true
		}
	}
	return 0, false
}

func (b Building) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Building) UnmarshalText(p []byte) error {
	v, ok := ParseBuilding(string(p))
	if !ok {
		return &UnknownKeyError{Kind: "building", Key: string(p)}
	}
	*b = v
	return nil
}
