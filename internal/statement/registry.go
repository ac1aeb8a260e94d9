package statement

import (
	"fmt"
	"strings"
)

// Vendor describes a registered parser
type Vendor struct {
	Name        string
	Description string
	New         func(clock TimeSource) (Parser, Diagnostics)
}

var vendors = []Vendor{
	{
		Name:        FlashBenefitsName,
		Description: "Statement screen of the Flash benefits card app.",
		New: func(clock TimeSource) (Parser, Diagnostics) {
			return NewFlashBenefits(clock)
		},
	},
	{
		Name:        XPCardNotificationsName,
		Description: "Purchase notifications of the XP credit card (best effort).",
		New: func(clock TimeSource) (Parser, Diagnostics) {
			return NewXPCardNotifications(clock)
		},
	},
}

// Vendors returns every registered parser in registration order
func Vendors() []Vendor {
	return append([]Vendor(nil), vendors...)
}

// Names returns the names of every registered parser
func Names() []string {
	names := make([]string, len(vendors))
	for i, v := range vendors {
		names[i] = v.Name
	}
	return names
}

// Lookup finds a parser by name, ignoring case
func Lookup(name string) (Vendor, bool) {
	for _, v := range vendors {
		if strings.EqualFold(v.Name, strings.TrimSpace(name)) {
			return v, true
		}
	}
	return Vendor{}, false
}

// New creates the named parser along with its construction warnings
func New(name string, clock TimeSource) (Parser, Diagnostics, error) {
	v, ok := Lookup(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w %q, available: %s", ErrUnknownParser, name, strings.Join(Names(), ", "))
	}
	if clock == nil {
		clock = SystemClock{}
	}
	parser, diags := v.New(clock)
	return parser, diags, nil
}
