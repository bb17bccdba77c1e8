package timetable

import (
	"github.com/cinsalaco/roydon-crossing/pkg/util"
)

// The crossing sits on the West Anglia main line between Broxbourne and
// Harlow. Four service corridors run over it; a journey is classified by its
// endpoint codes and then bracketed between two stations with published times
// for interpolation.

type RouteName string

const (
	RouteCambridge RouteName = "cambridge"
	RouteStansted  RouteName = "stansted"
	RouteEly       RouteName = "ely"
	RouteStratford RouteName = "stratford"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"  // towards the London hub
	DirectionOutbound Direction = "outbound" // away from it
)

// RouteKey identifies one corridor and direction, the granularity at which
// brackets and calibration offsets are fixed.
type RouteKey struct {
	Route     RouteName `yaml:"route"`
	Direction Direction `yaml:"direction"`
}

var (
	// The hub has two interchangeable location codes; both must be tried
	// wherever it appears.
	hubCodes = []string{"LIVST", "LVRPLST"}

	cambridgeCodes = []string{"CAMBDGE", "CAMBNTH", "CAMBCSN"}
	stanstedCodes  = []string{"STANAIR"}
	elyCodes       = []string{"ELY", "ELYY"}
	stratfordCodes = []string{"STFD"}

	// The station group immediately ahead of the crossing. One of these must
	// appear in the calling pattern for classification to succeed at all.
	beforeReferenceCodes = []string{"BROXBRN", "BROXBNJ", "CHESHNT"}
)

const (
	stortfordCode = "BSHPSFD" // Bishops Stortford, the far-side bracket
	cheshuntCode  = "CHESHNT"
	hubCode       = "LIVST" // stands for either hub alias in the bracket table
)

// Bracket names the two stations whose times straddle the crossing for a
// given route and direction.
type Bracket struct {
	Before string
	After  string
}

var routeBrackets = map[RouteKey]Bracket{
	{RouteStansted, DirectionOutbound}:  {cheshuntCode, stortfordCode},
	{RouteStansted, DirectionInbound}:   {stortfordCode, hubCode},
	{RouteCambridge, DirectionOutbound}: {hubCode, stortfordCode},
	{RouteCambridge, DirectionInbound}:  {stortfordCode, hubCode},
	{RouteEly, DirectionOutbound}:       {hubCode, stortfordCode},
	{RouteEly, DirectionInbound}:        {stortfordCode, hubCode},
	{RouteStratford, DirectionOutbound}: {cheshuntCode, stortfordCode},
}

// ClassifyRoute decides which corridor a journey runs over and in which
// direction. It needs the before-reference group in the calling pattern and a
// recognised endpoint; anything else is not a through service this crossing
// sees.
func ClassifyRoute(journey *Journey) (RouteKey, bool) {
	origin, destination := journey.Endpoints()
	if origin == "" || destination == "" {
		return RouteKey{}, false
	}

	hasBeforeReference := false
	hasStortford := false
	for _, code := range beforeReferenceCodes {
		if journey.Location(code) != nil {
			hasBeforeReference = true
			break
		}
	}
	if journey.Location(stortfordCode) != nil {
		hasStortford = true
	}

	if !hasBeforeReference {
		return RouteKey{}, false
	}

	switch {
	case util.ContainsString(stanstedCodes, origin):
		return RouteKey{RouteStansted, DirectionInbound}, true
	case util.ContainsString(stanstedCodes, destination):
		return RouteKey{RouteStansted, DirectionOutbound}, true
	case hasStortford && util.ContainsString(elyCodes, origin):
		return RouteKey{RouteEly, DirectionInbound}, true
	case hasStortford && util.ContainsString(elyCodes, destination):
		return RouteKey{RouteEly, DirectionOutbound}, true
	case hasStortford && util.ContainsString(stratfordCodes, origin) && destination == stortfordCode:
		return RouteKey{RouteStratford, DirectionOutbound}, true
	case hasStortford && util.ContainsString(cambridgeCodes, origin):
		return RouteKey{RouteCambridge, DirectionInbound}, true
	case hasStortford && util.ContainsString(cambridgeCodes, destination):
		return RouteKey{RouteCambridge, DirectionOutbound}, true
	}

	return RouteKey{}, false
}

// IsThroughService checks the journey touches a valid endpoint combination
// for its corridor: the hub plus one of the corridor destination groups, or
// the Stratford local pair.
func IsThroughService(journey *Journey) bool {
	touches := func(codes []string) bool {
		for _, code := range codes {
			if journey.Location(code) != nil {
				return true
			}
		}

		return false
	}

	if touches(hubCodes) && (touches(cambridgeCodes) || touches(stanstedCodes) || touches(elyCodes)) {
		return true
	}

	return touches(stratfordCodes) && journey.Location(stortfordCode) != nil
}

// BracketLocations resolves the two bracketing calling points for a
// classified journey, trying both hub aliases where the bracket names the
// hub.
func BracketLocations(journey *Journey, key RouteKey) (before *Location, after *Location) {
	bracket, ok := routeBrackets[key]
	if !ok {
		return nil, nil
	}

	resolve := func(code string) *Location {
		if code == hubCode {
			for _, alias := range hubCodes {
				if location := journey.Location(alias); location != nil {
					return location
				}
			}

			return nil
		}

		return journey.Location(code)
	}

	return resolve(bracket.Before), resolve(bracket.After)
}
