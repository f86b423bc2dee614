package collector

// ColumnType names how a column's values should be interpreted by
// downstream readers of the YAML header.
type ColumnType string

const (
	ColumnInt     ColumnType = "int"
	ColumnEpoch19 ColumnType = "epoch19"
)

// Column describes one column of a collector's CSV schema. Scalar columns
// carry a single value per row; Vector columns (only cgroup v1's
// cpu.usage.percpu today) carry Count space-separated values in one field.
type Column struct {
	Type  ColumnType `yaml:"Type"`
	Count int        `yaml:"Count,omitempty"`
}

// TableMetadata is serialized into the YAML header's PerfTable mapping.
type TableMetadata struct {
	Delimiter string            `yaml:"Delimiter"`
	Columns   map[string]Column `yaml:"Columns"`
}
