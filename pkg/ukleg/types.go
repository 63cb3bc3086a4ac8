// Package ukleg provides a connector to UK legislation.gov.uk: legislation
// type codes, URI construction and parsing, and a rate-limited client for
// fetching CLML XML and Atom feeds.
package ukleg

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agext/levenshtein"
)

// LegislationType represents the type of UK legislation on legislation.gov.uk.
// See: https://www.legislation.gov.uk/developer/uris
type LegislationType string

const (
	LegislationTypeUKPGA LegislationType = "ukpga" // UK Public General Acts
	LegislationTypeUKLA  LegislationType = "ukla"  // UK Local Acts
	LegislationTypeUKPPA LegislationType = "ukppa" // UK Private and Personal Acts
	LegislationTypeASP   LegislationType = "asp"   // Acts of the Scottish Parliament
	LegislationTypeASC   LegislationType = "asc"   // Acts of Senedd Cymru
	LegislationTypeANAW  LegislationType = "anaw"  // Acts of the National Assembly for Wales
	LegislationTypeMWA   LegislationType = "mwa"   // Measures of the National Assembly for Wales
	LegislationTypeUKCM  LegislationType = "ukcm"  // Church Measures
	LegislationTypeNIA   LegislationType = "nia"   // Acts of the Northern Ireland Assembly
	LegislationTypeAOSP  LegislationType = "aosp"  // Acts of the Old Scottish Parliament
	LegislationTypeAEP   LegislationType = "aep"   // Acts of the English Parliament
	LegislationTypeAIP   LegislationType = "aip"   // Acts of the Old Irish Parliament
	LegislationTypeAPGB  LegislationType = "apgb"  // Acts of the Parliament of Great Britain
	LegislationTypeGBLA  LegislationType = "gbla"  // Local Acts of the Parliament of Great Britain
	LegislationTypeGBPPA LegislationType = "gbppa" // Private Acts of the Parliament of Great Britain
	LegislationTypeNISI  LegislationType = "nisi"  // Northern Ireland Orders in Council
	LegislationTypeMNIA  LegislationType = "mnia"  // Measures of the Northern Ireland Assembly
	LegislationTypeAPNI  LegislationType = "apni"  // Acts of the Northern Ireland Parliament
	LegislationTypeUKSI  LegislationType = "uksi"  // UK Statutory Instruments
	LegislationTypeSSI   LegislationType = "ssi"   // Scottish Statutory Instruments
	LegislationTypeWSI   LegislationType = "wsi"   // Wales Statutory Instruments
	LegislationTypeNISR  LegislationType = "nisr"  // Northern Ireland Statutory Rules
	LegislationTypeUKCI  LegislationType = "ukci"  // Church Instruments
	LegislationTypeUKMD  LegislationType = "ukmd"  // UK Ministerial Directions
	LegislationTypeUKMO  LegislationType = "ukmo"  // UK Ministerial Orders
	LegislationTypeUKSRO LegislationType = "uksro" // UK Statutory Rules and Orders
	LegislationTypeNISRO LegislationType = "nisro" // Northern Ireland Statutory Rules and Orders
	LegislationTypeUKDSI LegislationType = "ukdsi" // UK Draft Statutory Instruments
	LegislationTypeSDSI  LegislationType = "sdsi"  // Scottish Draft Statutory Instruments
	LegislationTypeWDSI  LegislationType = "wdsi"  // Wales Draft Statutory Instruments
	LegislationTypeNIDSR LegislationType = "nidsr" // Northern Ireland Draft Statutory Rules
	LegislationTypeEUR   LegislationType = "eur"   // Regulations originating from the EU
	LegislationTypeEUDN  LegislationType = "eudn"  // Decisions originating from the EU
	LegislationTypeEUDR  LegislationType = "eudr"  // Directives originating from the EU
	LegislationTypeEUT   LegislationType = "eut"   // EU treaties
)

// legislationTypes describes every known type code.
var legislationTypes = map[LegislationType]string{
	LegislationTypeUKPGA: "UK Public General Acts",
	LegislationTypeUKLA:  "UK Local Acts",
	LegislationTypeUKPPA: "UK Private and Personal Acts",
	LegislationTypeASP:   "Acts of the Scottish Parliament",
	LegislationTypeASC:   "Acts of Senedd Cymru",
	LegislationTypeANAW:  "Acts of the National Assembly for Wales",
	LegislationTypeMWA:   "Measures of the National Assembly for Wales",
	LegislationTypeUKCM:  "Church Measures",
	LegislationTypeNIA:   "Acts of the Northern Ireland Assembly",
	LegislationTypeAOSP:  "Acts of the Old Scottish Parliament",
	LegislationTypeAEP:   "Acts of the English Parliament",
	LegislationTypeAIP:   "Acts of the Old Irish Parliament",
	LegislationTypeAPGB:  "Acts of the Parliament of Great Britain",
	LegislationTypeGBLA:  "Local Acts of the Parliament of Great Britain",
	LegislationTypeGBPPA: "Private Acts of the Parliament of Great Britain",
	LegislationTypeNISI:  "Northern Ireland Orders in Council",
	LegislationTypeMNIA:  "Measures of the Northern Ireland Assembly",
	LegislationTypeAPNI:  "Acts of the Northern Ireland Parliament",
	LegislationTypeUKSI:  "UK Statutory Instruments",
	LegislationTypeSSI:   "Scottish Statutory Instruments",
	LegislationTypeWSI:   "Wales Statutory Instruments",
	LegislationTypeNISR:  "Northern Ireland Statutory Rules",
	LegislationTypeUKCI:  "Church Instruments",
	LegislationTypeUKMD:  "UK Ministerial Directions",
	LegislationTypeUKMO:  "UK Ministerial Orders",
	LegislationTypeUKSRO: "UK Statutory Rules and Orders",
	LegislationTypeNISRO: "Northern Ireland Statutory Rules and Orders",
	LegislationTypeUKDSI: "UK Draft Statutory Instruments",
	LegislationTypeSDSI:  "Scottish Draft Statutory Instruments",
	LegislationTypeWDSI:  "Wales Draft Statutory Instruments",
	LegislationTypeNIDSR: "Northern Ireland Draft Statutory Rules",
	LegislationTypeEUR:   "Regulations originating from the EU",
	LegislationTypeEUDN:  "Decisions originating from the EU",
	LegislationTypeEUDR:  "Directives originating from the EU",
	LegislationTypeEUT:   "EU treaties",
}

// documentMainTypes maps the CLML ukm:DocumentMainType values to type codes.
var documentMainTypes = map[string]LegislationType{
	"UnitedKingdomPublicGeneralAct":         LegislationTypeUKPGA,
	"UnitedKingdomLocalAct":                 LegislationTypeUKLA,
	"UnitedKingdomPrivateOrPersonalAct":     LegislationTypeUKPPA,
	"ScottishAct":                           LegislationTypeASP,
	"WelshParliamentAct":                    LegislationTypeASC,
	"WelshNationalAssemblyAct":              LegislationTypeANAW,
	"WelshAssemblyMeasure":                  LegislationTypeMWA,
	"UnitedKingdomChurchMeasure":            LegislationTypeUKCM,
	"NorthernIrelandAct":                    LegislationTypeNIA,
	"ScottishOldAct":                        LegislationTypeAOSP,
	"EnglandAct":                            LegislationTypeAEP,
	"IrelandAct":                            LegislationTypeAIP,
	"GreatBritainAct":                       LegislationTypeAPGB,
	"GreatBritainLocalAct":                  LegislationTypeGBLA,
	"GreatBritainPrivateOrPersonalAct":      LegislationTypeGBPPA,
	"NorthernIrelandOrderInCouncil":         LegislationTypeNISI,
	"NorthernIrelandAssemblyMeasure":        LegislationTypeMNIA,
	"NorthernIrelandParliamentAct":          LegislationTypeAPNI,
	"UnitedKingdomStatutoryInstrument":      LegislationTypeUKSI,
	"ScottishStatutoryInstrument":           LegislationTypeSSI,
	"WelshStatutoryInstrument":              LegislationTypeWSI,
	"NorthernIrelandStatutoryRule":          LegislationTypeNISR,
	"UnitedKingdomChurchInstrument":         LegislationTypeUKCI,
	"UnitedKingdomMinisterialDirection":     LegislationTypeUKMD,
	"UnitedKingdomMinisterialOrder":         LegislationTypeUKMO,
	"UnitedKingdomStatutoryRuleOrOrder":     LegislationTypeUKSRO,
	"NorthernIrelandStatutoryRuleOrOrder":   LegislationTypeNISRO,
	"UnitedKingdomDraftStatutoryInstrument": LegislationTypeUKDSI,
	"ScottishDraftStatutoryInstrument":      LegislationTypeSDSI,
	"WelshDraftStatutoryInstrument":         LegislationTypeWDSI,
	"NorthernIrelandDraftStatutoryRule":     LegislationTypeNIDSR,
	"EuropeanUnionRegulation":               LegislationTypeEUR,
	"EuropeanUnionDecision":                 LegislationTypeEUDN,
	"EuropeanUnionDirective":                LegislationTypeEUDR,
	"EuropeanUnionTreaty":                   LegislationTypeEUT,
}

// Valid reports whether legislationType is a known type code.
func (legislationType LegislationType) Valid() bool {
	_, known := legislationTypes[legislationType]
	return known
}

// Description returns the human-readable name of the type, or the code itself
// when the type is unknown.
func (legislationType LegislationType) Description() string {
	if description, known := legislationTypes[legislationType]; known {
		return description
	}
	return string(legislationType)
}

// KnownLegislationTypes returns every known type code in sorted order.
func KnownLegislationTypes() []LegislationType {
	known := make([]LegislationType, 0, len(legislationTypes))
	for legislationType := range legislationTypes {
		known = append(known, legislationType)
	}
	sort.Slice(known, func(i, j int) bool { return known[i] < known[j] })
	return known
}

// ParseLegislationType parses a type code case-insensitively. Unknown codes
// produce an error that suggests the closest known code.
func ParseLegislationType(code string) (LegislationType, error) {
	legislationType := LegislationType(strings.ToLower(strings.TrimSpace(code)))
	if legislationType.Valid() {
		return legislationType, nil
	}

	if suggestion, found := closestLegislationType(string(legislationType)); found {
		return "", fmt.Errorf("unknown legislation type %q (did you mean %q?)", code, suggestion)
	}
	return "", fmt.Errorf("unknown legislation type %q", code)
}

// TypeForDocumentMainType maps a ukm:DocumentMainType value to its type code.
func TypeForDocumentMainType(documentMainType string) (LegislationType, bool) {
	legislationType, found := documentMainTypes[strings.TrimSpace(documentMainType)]
	return legislationType, found
}

// closestLegislationType returns the known code with the smallest edit
// distance to code, if it is within two edits.
func closestLegislationType(code string) (LegislationType, bool) {
	const maxSuggestionDistance = 2

	var bestType LegislationType
	bestDistance := maxSuggestionDistance + 1
	for _, candidate := range KnownLegislationTypes() {
		distance := levenshtein.Distance(code, string(candidate), nil)
		if distance < bestDistance {
			bestType, bestDistance = candidate, distance
		}
	}
	return bestType, bestDistance <= maxSuggestionDistance
}

// LegislationBaseURL is the base URL for human-readable legislation.gov.uk pages.
const LegislationBaseURL = "https://www.legislation.gov.uk/"

// LegislationIDBaseURL is the base URL for stable legislation.gov.uk identifier URIs
// that support content negotiation (XML, RDF, HTML).
const LegislationIDBaseURL = "https://www.legislation.gov.uk/id/"

// LegislationURI is a structured representation of a legislation.gov.uk URI.
// Format: https://www.legislation.gov.uk/{type}/{year}/{number}
// Example: https://www.legislation.gov.uk/ukpga/2020/7
type LegislationURI struct {
	LegislationType LegislationType `json:"legislation_type" yaml:"legislation_type"`
	Year            string          `json:"year" yaml:"year"`
	Number          string          `json:"number" yaml:"number"`
	Section         string          `json:"section,omitempty" yaml:"section,omitempty"` // Optional section-level reference
}

// ID returns the short identifier used in request paths, e.g. "ukpga/2020/7".
func (legislationURI LegislationURI) ID() string {
	return string(legislationURI.LegislationType) + "/" + legislationURI.Year + "/" + legislationURI.Number
}

// String returns the full legislation.gov.uk URI for human-readable access.
// If Section is set, returns the /id/ variant with section path appended.
func (legislationURI LegislationURI) String() string {
	if legislationURI.Section != "" {
		return legislationURI.IDString()
	}
	return LegislationBaseURL + legislationURI.ID()
}

// IDString returns the stable /id/ URI variant for API and content negotiation use.
func (legislationURI LegislationURI) IDString() string {
	baseURI := LegislationIDBaseURL + legislationURI.ID()
	if legislationURI.Section != "" {
		return baseURI + "/section/" + legislationURI.Section
	}
	return baseURI
}

// ValidationResult captures the outcome of a URI validation via HEAD request.
type ValidationResult struct {
	URI        string    `json:"uri" yaml:"uri"`
	Valid      bool      `json:"valid" yaml:"valid"`
	StatusCode int       `json:"status_code" yaml:"status_code"`
	CheckedAt  time.Time `json:"checked_at" yaml:"checked_at"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// DocumentMetadata describes a document retrieved from legislation.gov.uk.
type DocumentMetadata struct {
	LegislationType string    `json:"legislation_type" yaml:"legislation_type"`
	Year            string    `json:"year" yaml:"year"`
	Number          string    `json:"number" yaml:"number"`
	URI             string    `json:"uri,omitempty" yaml:"uri,omitempty"`
	ContentLength   int       `json:"content_length" yaml:"content_length"`
	RetrievedAt     time.Time `json:"retrieved_at" yaml:"retrieved_at"`
}
