package ukleg

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseLegislationID parses a short identifier such as "ukpga/2020/7" or
// "uksi/2019/419/section/3". Year and number must be positive integers.
func ParseLegislationID(identifier string) (LegislationURI, error) {
	segments := strings.Split(strings.Trim(strings.TrimSpace(identifier), "/"), "/")
	if len(segments) < 3 {
		return LegislationURI{}, fmt.Errorf("legislation identifier %q must have the form type/year/number", identifier)
	}

	legislationURI, err := uriFromSegments(segments[0], segments[1], segments[2])
	if err != nil {
		return LegislationURI{}, fmt.Errorf("invalid legislation identifier %q: %w", identifier, err)
	}

	if len(segments) >= 5 && segments[3] == "section" {
		legislationURI.Section = segments[4]
	}
	return legislationURI, nil
}

// ParseLegislationURI extracts the type/year/number triple from a full
// legislation.gov.uk URI, with or without the /id/ segment, and ignores any
// trailing version or format segments.
//
// Example: ParseLegislationURI("http://www.legislation.gov.uk/id/ukpga/2020/7")
func ParseLegislationURI(rawURI string) (LegislationURI, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURI))
	if err != nil {
		return LegislationURI{}, fmt.Errorf("invalid legislation URI %q: %w", rawURI, err)
	}

	segments := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	for index := 0; index+2 < len(segments); index++ {
		if !LegislationType(segments[index]).Valid() {
			continue
		}
		legislationURI, err := uriFromSegments(segments[index], segments[index+1], segments[index+2])
		if err != nil {
			continue
		}
		if index+4 < len(segments) && segments[index+3] == "section" {
			legislationURI.Section = segments[index+4]
		}
		return legislationURI, nil
	}

	return LegislationURI{}, fmt.Errorf("no type/year/number found in legislation URI %q", rawURI)
}

// GenerateSectionURI creates a legislation.gov.uk URI for a section reference
// within a known document.
//
// Example: GenerateSectionURI(LegislationTypeUKPGA, "2018", "12", "6")
//
//	→ https://www.legislation.gov.uk/id/ukpga/2018/12/section/6
func GenerateSectionURI(legislationType LegislationType, year string, number string, sectionNumber string) LegislationURI {
	return LegislationURI{
		LegislationType: legislationType,
		Year:            year,
		Number:          number,
		Section:         sectionNumber,
	}
}

// DataXMLPath returns the request path of the CLML XML representation,
// relative to the API base URL.
func (legislationURI LegislationURI) DataXMLPath() string {
	path := legislationURI.ID()
	if legislationURI.Section != "" {
		path += "/section/" + legislationURI.Section
	}
	return path + "/data.xml"
}

func uriFromSegments(typeSegment string, yearSegment string, numberSegment string) (LegislationURI, error) {
	legislationType, err := ParseLegislationType(typeSegment)
	if err != nil {
		return LegislationURI{}, err
	}
	if !isPositiveInteger(yearSegment) {
		return LegislationURI{}, fmt.Errorf("year %q is not a positive integer", yearSegment)
	}
	if !isPositiveInteger(numberSegment) {
		return LegislationURI{}, fmt.Errorf("number %q is not a positive integer", numberSegment)
	}

	return LegislationURI{
		LegislationType: legislationType,
		Year:            yearSegment,
		Number:          numberSegment,
	}, nil
}

func isPositiveInteger(value string) bool {
	parsed, err := strconv.Atoi(value)
	return err == nil && parsed > 0
}
