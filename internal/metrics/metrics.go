/**
 * Prometheus metrics for the OCR worker
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ocr_worker"

var (
	// DocumentsProcessed counts finished documents by outcome (success or an error code).
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents processed, labelled by outcome.",
		},
		[]string{"outcome"},
	)

	PagesRecognized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_recognized_total",
			Help:      "Pages recognized, labelled by engine.",
		},
		[]string{"engine"},
	)

	RecognitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_recognition_seconds",
			Help:      "Wall-clock time of a single page recognition.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"engine"},
	)

	DocumentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_processing_seconds",
			Help:      "End-to-end processing time of a document.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		},
	)

	Corrections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrections_total",
			Help:      "Corrections applied, labelled by stage.",
		},
		[]string{"stage"},
	)

	QualityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Overall quality score of processed documents.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
	)

	VocabularyApprovals = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vocabulary_approvals_total",
			Help:      "Words promoted to the approved vocabulary.",
		},
	)

	Degradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degradations_total",
			Help:      "Recoverable degradations, labelled by kind.",
		},
		[]string{"kind"},
	)
)
