package clml

// Config controls section discovery and title resolution.
type Config struct {
	// ContainerRules lists the recognised container tags. Empty means
	// DefaultContainerRules.
	ContainerRules []ContainerRule

	// OpaqueElements lists elements whose subtrees are not searched for
	// containers. Nil means DefaultOpaqueElements; an empty slice skips none.
	OpaqueElements []QName

	// MaxTitleLength caps titles taken from descendant text, in runes.
	MaxTitleLength int
}

// DefaultConfig returns the configuration used by the package-level Extract.
func DefaultConfig() Config {
	return Config{
		ContainerRules: DefaultContainerRules(),
		OpaqueElements: DefaultOpaqueElements(),
		MaxTitleLength: DefaultMaxTitleLength,
	}
}

// Result pairs an extracted document with the non-fatal warnings collected
// while building it.
type Result struct {
	Document *LegislationDocument
	Warnings []*UnresolvedSectionWarning
}

// Extractor runs the load, walk, resolve and assemble stages. It holds no
// per-document state and is safe for concurrent use.
type Extractor struct {
	walker    *SectionWalker
	assembler *Assembler
}

// NewExtractor creates an Extractor from config.
func NewExtractor(config Config) *Extractor {
	walker := NewSectionWalker(config.ContainerRules...)
	if config.OpaqueElements != nil {
		walker = walker.WithOpaqueElements(config.OpaqueElements...)
	}
	return &Extractor{
		walker:    walker,
		assembler: NewAssembler(NewTitleResolver(config.MaxTitleLength)),
	}
}

// Extract parses content and returns its LegislationDocument. Malformed XML
// yields *ParseError; a document without type, year and number yields
// *IncompleteMetadataError. Extraction is deterministic for identical input.
func (extractor *Extractor) Extract(content []byte) (*Result, error) {
	tree, err := Load(content)
	if err != nil {
		return nil, err
	}

	document, warnings, err := extractor.assembler.Assemble(tree, extractor.walker.Walk(tree.Root()))
	if err != nil {
		return nil, err
	}
	return &Result{Document: document, Warnings: warnings}, nil
}

var defaultExtractor = NewExtractor(DefaultConfig())

// Extract runs extraction with DefaultConfig.
func Extract(content []byte) (*Result, error) {
	return defaultExtractor.Extract(content)
}
