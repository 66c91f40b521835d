package engine

import "github.com/talgya/cromulant/internal/ants"

// Category is a kind of scheduled event.
type Category uint8

const (
	CategoryTriumph Category = iota
	CategoryHit
	CategoryTravel
	CategoryThink
	CategoryWords
	CategoryMerge
)

var categoryNames = [...]string{
	CategoryTriumph: "triumph",
	CategoryHit:     "hit",
	CategoryTravel:  "travel",
	CategoryThink:   "think",
	CategoryWords:   "words",
	CategoryMerge:   "merge",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Method is the tag an ant carries after an event of this category.
func (c Category) Method() ants.Method {
	switch c {
	case CategoryTriumph:
		return ants.MethodTriumph
	case CategoryHit:
		return ants.MethodHit
	case CategoryTravel:
		return ants.MethodTravel
	case CategoryThink:
		return ants.MethodThink
	case CategoryWords:
		return ants.MethodWords
	case CategoryMerge:
		return ants.MethodMerge
	}
	return ants.MethodNone
}

// Option is one drawable category with its weight. Pity marks the merge
// option unlocked by the charge counter.
type Option struct {
	Category Category `json:"category"`
	Weight   float64  `json:"weight"`
	Pity     bool     `json:"pity,omitempty"`
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
