package enums

import "fmt"

// MilkOption enumerates the milks a coffee line can be customized with.
type MilkOption string

const (
	MilkWhole       MilkOption = "WHOLE"
	MilkHalfAndHalf MilkOption = "HALF_AND_HALF"
	MilkAlmond      MilkOption = "ALMOND"
	MilkOat         MilkOption = "OAT"
	MilkSoy         MilkOption = "SOY"
)

var validMilkOptions = []MilkOption{
	MilkWhole,
	MilkHalfAndHalf,
	MilkAlmond,
	MilkOat,
	MilkSoy,
}

var milkLabels = map[MilkOption]string{
	MilkWhole:       "Whole milk",
	MilkHalfAndHalf: "Half & half",
	MilkAlmond:      "Almond milk",
	MilkOat:         "Oat milk",
	MilkSoy:         "Soy milk",
}

// String implements fmt.Stringer.
func (m MilkOption) String() string {
	return string(m)
}

// Label returns the display copy for the milk option.
func (m MilkOption) Label() string {
	if label, ok := milkLabels[m]; ok {
		return label
	}
	return "House milk"
}

// IsValid reports whether the milk option is recognized.
func (m MilkOption) IsValid() bool {
	for _, candidate := range validMilkOptions {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMilkOption converts a raw string into a MilkOption.
func ParseMilkOption(value string) (MilkOption, error) {
	for _, candidate := range validMilkOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid milk option %q", value)
}
