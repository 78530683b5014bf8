package ledger

// Resource is a closed set of stockpile kinds. The zero value is Gold.
type Resource uint8

const (
	Gold Resource = iota
	Wood
	Stone
	Food
	Iron
	Knowledge
	Mana
	Crowns

	NumResources = int(Crowns) + 1
)

var resourceNames = [NumResources]string{
	Gold:      "gold",
	Wood:      "wood",
	Stone:     "stone",
	Food:      "food",
	Iron:      "iron",
	Knowledge: "knowledge",
	Mana:      "mana",
	Crowns:    "crowns",
}

// AllResources returns every resource in stable order.
func AllResources() []Resource {
	out := make([]Resource, NumResources)
	for i := range out {
		out[i] = Resource(i)
	}
	return out
}

func (r Resource) Valid() bool { return int(r) < NumResources }

func (r Resource) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return resourceNames[r]
}

func ParseResource(s string) (Resource, bool) {
	for i, n := range resourceNames {
		if n == s {
			return Resource(i), true
		}
	}
	return 0, false
}

func (r Resource) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Resource) UnmarshalText(b []byte) error {
	v, ok := ParseResource(string(b))
	if !ok {
		return &UnknownKeyError{Kind: "resource", Key: string(b)}
	}
	*r = v
	return nil
}

// UnknownKeyError reports an id outside the closed set.
type UnknownKeyError struct {
	Kind string
	Key  string
}

func (e *UnknownKeyError) Error() string { return "unknown " + e.Kind + " " + e.Key }
