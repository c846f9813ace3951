package optimization

import (
	"time"

	"github.com/dmelis/hrpfolio/internal/cluster"
)

// Result contains a complete HRP allocation run.
type Result struct {
	ID            string             `json:"id" msgpack:"id"`
	Timestamp     time.Time          `json:"timestamp" msgpack:"timestamp"`
	RiskMetric    string             `json:"risk_metric" msgpack:"risk_metric"`
	LinkageMethod string             `json:"linkage_method" msgpack:"linkage_method"`
	Assets        []string           `json:"assets" msgpack:"assets"`
	Weights       map[string]float64 `json:"weights" msgpack:"weights"`
	Observations  int                `json:"observations" msgpack:"observations"`

	// Tree is the merge tree retained for dendrogram rendering. It plays no
	// part in the allocation once weights are computed.
	Tree []cluster.Merge `json:"-" msgpack:"tree"`

	// Ordered is the quasi-diagonal permutation of Assets indices.
	Ordered []int `json:"ordered" msgpack:"ordered"`
}
