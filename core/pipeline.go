package core

// Capability names of the fixed content pipeline stages.
const (
	CapabilityResearchTopic = "research_topic"
	CapabilityWriteContent  = "write_content"
	CapabilityOptimizeSEO   = "optimize_seo"
	CapabilityGenerateImage = "generate_image"
)

// Stage names recorded in artifact metadata and run provenance.
const (
	StageResearch  = "research"
	StageWriting   = "writing"
	StageSEO       = "seo"
	StageImage     = "image"
	StageComposite = "composite"
)
