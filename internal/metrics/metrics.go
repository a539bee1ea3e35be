package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workspace Operation Metrics
var (
	// WorkspaceOpsTotal tracks workspace operations by operation and outcome
	WorkspaceOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workspace_operations_total",
			Help: "Total workspace operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// WorkspaceOpDuration tracks workspace operation latency in seconds
	WorkspaceOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workspace_operation_duration_seconds",
			Help:    "Workspace operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// DocumentRenamesTotal tracks file renames performed while keeping indices dense
	DocumentRenamesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workspace_document_renames_total",
			Help: "Total document renames by cause (compact, reorder, repair)",
		},
		[]string{"cause"},
	)

	// IndexRepairsTotal tracks listings that had to be renumbered after an interrupted operation
	IndexRepairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workspace_index_repairs_total",
			Help: "Total workspace listings renumbered to restore a dense index",
		},
	)

	// CounterDriftTotal tracks inserts where the stored next-index counter disagreed with the listing
	CounterDriftTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workspace_counter_drift_total",
			Help: "Total inserts where the next-index counter was corrected from the listing",
		},
	)
)

// Document Metrics
var (
	// UploadedBytesTotal tracks the volume of accepted uploads
	UploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_uploaded_bytes_total",
			Help: "Total bytes of accepted document uploads",
		},
	)

	// ThumbnailsRenderedTotal tracks thumbnails created on demand
	ThumbnailsRenderedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbnails_rendered_total",
			Help: "Total thumbnails rendered on first view",
		},
	)

	// MergedDocumentsTotal tracks how many documents went into merges
	MergedDocumentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "merged_documents_total",
			Help: "Total documents concatenated into merged downloads",
		},
	)

	// WorkspacesSweptTotal tracks stale workspaces removed by the sweeper
	WorkspacesSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workspaces_swept_total",
			Help: "Total stale workspaces removed",
		},
	)
)
