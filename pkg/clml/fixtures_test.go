package clml

import (
	"fmt"
	"strings"
)

const legislationNamespaces = `xmlns="http://www.legislation.gov.uk/namespaces/legislation" ` +
	`xmlns:ukm="http://www.legislation.gov.uk/namespaces/metadata" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/"`

// clmlDocument wraps metadata and body markup in a Legislation root element.
func clmlDocument(rootAttributes string, metadata string, body string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Legislation %s %s>
  <ukm:Metadata>%s</ukm:Metadata>
  <Primary>%s</Primary>
</Legislation>`, legislationNamespaces, rootAttributes, metadata, body))
}

func primaryMetadata(mainType string, year int, number int, title string) string {
	return fmt.Sprintf(`
    <dc:title>%s</dc:title>
    <ukm:PrimaryMetadata>
      <ukm:DocumentClassification>
        <ukm:DocumentCategory Value="primary"/>
        <ukm:DocumentMainType Value="%s"/>
        <ukm:DocumentStatus Value="revised"/>
      </ukm:DocumentClassification>
      <ukm:Year Value="%d"/>
      <ukm:Number Value="%d"/>
      <ukm:EnactmentDate Date="2020-03-25"/>
    </ukm:PrimaryMetadata>`, title, mainType, year, number)
}

// headedSections renders count P1group/P1 sections numbered from 1, each
// headed "Heading N".
func headedSections(count int) string {
	var builder strings.Builder
	builder.WriteString("<Body>")
	for index := 1; index <= count; index++ {
		fmt.Fprintf(&builder, `
    <P1group><Title>Heading %d</Title>
      <P1 id="section-%d"><Pnumber>%d</Pnumber><P1para><Text>Body of section %d.</Text></P1para></P1>
    </P1group>`, index, index, index, index)
	}
	builder.WriteString("</Body>")
	return builder.String()
}

func coronavirusAct() []byte {
	return clmlDocument(
		`IdURI="http://www.legislation.gov.uk/id/ukpga/2020/7" DocumentURI="http://www.legislation.gov.uk/ukpga/2020/7"`,
		primaryMetadata("UnitedKingdomPublicGeneralAct", 2020, 7, "Coronavirus Act 2020"),
		`<PrimaryPrelims><Title>Coronavirus Act 2020</Title>
      <LongTitle>An Act to make provision in connection with coronavirus; and for connected purposes.</LongTitle>
    </PrimaryPrelims>`+headedSections(102),
	)
}
