package mcp

// SimulateInput defines the input for the nrrw_simulate tool.
type SimulateInput struct {
	Parameter uint `json:"parameter" jsonschema:"growth period: a leaf is attached every this many steps, must be positive"`
	Steps     uint `json:"steps" jsonschema:"number of walk transitions per run"`
	Count     int  `json:"count,omitempty" jsonschema:"number of independent runs (default 1)"`
}

// SimulateOutput defines the output for the nrrw_simulate tool.
type SimulateOutput struct {
	BatchID int64        `json:"batch_id,omitempty" jsonschema:"results store batch id, when a store is configured"`
	Runs    []RunSummary `json:"runs" jsonschema:"one entry per run ordered by index"`
}

// RunSummary is one finished run.
type RunSummary struct {
	Index       int    `json:"index"`
	VertexCount int    `json:"vertex_count"`
	EdgeCount   int    `json:"edge_count"`
	Degrees     []uint `json:"degrees"`
}

// GraphInput defines the input for the nrrw_graph tool.
type GraphInput struct {
	Parameter uint   `json:"parameter" jsonschema:"growth period, must be positive"`
	Steps     uint   `json:"steps" jsonschema:"number of walk transitions"`
	Format    string `json:"format,omitempty" jsonschema:"output format: dot or json (default dot)"`
}

// GraphOutput defines the output for the nrrw_graph tool.
type GraphOutput struct {
	Format      string      `json:"format"`
	Graph       interface{} `json:"graph" jsonschema:"DOT source as a string, or a JSON object with degrees and edges"`
	VertexCount int         `json:"vertex_count"`
	EdgeCount   int         `json:"edge_count"`
}

// BatchesInput defines the input for the nrrw_batches tool.
type BatchesInput struct {
	BatchID int64 `json:"batch_id,omitempty" jsonschema:"list the runs of this batch instead of all batches"`
}

// BatchesOutput defines the output for the nrrw_batches tool.
type BatchesOutput struct {
	Batches []BatchItem `json:"batches,omitempty"`
	Runs    []RunItem   `json:"runs,omitempty"`
}

// BatchItem summarizes a stored batch.
type BatchItem struct {
	ID        int64  `json:"id"`
	Parameter uint   `json:"parameter"`
	Steps     uint   `json:"steps"`
	RunCount  int    `json:"run_count"`
	CreatedAt string `json:"created_at"`
}

// RunItem summarizes a stored run.
type RunItem struct {
	Index       int   `json:"index"`
	VertexCount int   `json:"vertex_count"`
	EdgeCount   int   `json:"edge_count"`
	DurationMs  int64 `json:"duration_ms"`
}
