package spec

import "gopkg.in/yaml.v3"

// SourceSpec names the source kind, the broker client driver and the path
// to the source's own config file.
type SourceSpec struct {
	Kind   string `yaml:"kind"`
	Driver string `yaml:"driver"` // "sarama" or "franz"
	Config string `yaml:"config"`
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Source SourceSpec `yaml:"source"`

	// Capacity of the bounded channel between the source and the sinks.
	ChannelCapacity int `yaml:"channel_capacity"`

	Sinks []string `yaml:"sinks"`
	// Raw per-sink blocks, decoded by each sink into its own Config.
	SinkConfigs map[string]yaml.Node `yaml:"sink_configs"`
}
