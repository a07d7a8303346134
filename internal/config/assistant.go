package config

const (
	DefaultAssistantName   = "Academic Advisor"
	DefaultVectorStoreName = "Academic Knowledge Base"
	DefaultSampling        = 0.1
)

// AssistantConfig describes the per-session assistant created for each turn batch.
type AssistantConfig struct {
	Model           string  `yaml:"model" split_words:"true"`
	Name            string  `yaml:"name" split_words:"true"`
	Instructions    string  `yaml:"instructions" split_words:"true"`
	KnowledgeFile   string  `yaml:"knowledge_file" split_words:"true"`
	VectorStoreName string  `yaml:"vector_store_name" split_words:"true"`
	Temperature     float32 `yaml:"temperature" split_words:"true"`
	TopP            float32 `yaml:"top_p" split_words:"true"`
}

func (c *AssistantConfig) applyDefaults(model string) {
	if c.Model == "" {
		c.Model = model
	}
	if c.Name == "" {
		c.Name = DefaultAssistantName
	}
	if c.Instructions == "" {
		c.Instructions = "You are an email based academic advisor. Answer questions about courses, prerequisites and academic planning in a format suitable for professional email."
	}
	if c.VectorStoreName == "" {
		c.VectorStoreName = DefaultVectorStoreName
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultSampling
	}
	if c.TopP == 0 {
		c.TopP = DefaultSampling
	}
}
