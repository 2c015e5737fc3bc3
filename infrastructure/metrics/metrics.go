package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomePartial  = "partial"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Recorder tracks submission throughput, attachment loss and Graph traffic.
// A nil *Recorder records nothing.
type Recorder struct {
	gatherer prometheus.Gatherer

	submissions         *prometheus.CounterVec
	submissionDuration  prometheus.Histogram
	fileUploads         *prometheus.CounterVec
	folderFallbacks     prometheus.Counter
	referencesAllocated prometheus.Counter
	graphRequests       *prometheus.CounterVec
	graphLatency        *prometheus.HistogramVec
}

// NewRecorder registers the service metrics on reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nhbrcforms_submissions_total",
			Help: "Form submissions by province and outcome",
		}, []string{"province", "outcome"}),
		submissionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nhbrcforms_submission_duration_seconds",
			Help:    "Time taken to process an accepted submission end to end",
			Buckets: prometheus.DefBuckets,
		}),
		fileUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nhbrcforms_file_uploads_total",
			Help: "Attachment uploads by outcome",
		}, []string{"outcome"}),
		folderFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "nhbrcforms_folder_fallbacks_total",
			Help: "Submissions whose attachments went to the fallback folder",
		}),
		referencesAllocated: factory.NewCounter(prometheus.CounterOpts{
			Name: "nhbrcforms_reference_numbers_allocated_total",
			Help: "Reference numbers handed out since process start",
		}),
		graphRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nhbrcforms_graph_requests_total",
			Help: "Microsoft Graph requests by method and status class",
		}, []string{"method", "status"}),
		graphLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nhbrcforms_graph_request_duration_seconds",
			Help:    "Microsoft Graph request latency by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler exposes the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// SubmissionFinished records the outcome of one submission attempt.
func (r *Recorder) SubmissionFinished(province, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(province, outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomePartial {
		r.submissionDuration.Observe(elapsed.Seconds())
	}
}

// FileUploaded records one attachment upload attempt.
func (r *Recorder) FileUploaded(ok bool) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	r.fileUploads.WithLabelValues(outcome).Inc()
}

// FolderFallback records a switch to the fallback upload folder.
func (r *Recorder) FolderFallback() {
	if r == nil {
		return
	}
	r.folderFallbacks.Inc()
}

// ReferenceAllocated records one handed-out reference number.
func (r *Recorder) ReferenceAllocated() {
	if r == nil {
		return
	}
	r.referencesAllocated.Inc()
}

// GraphRequest records one Graph round trip. status 0 means a transport error.
func (r *Recorder) GraphRequest(method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.graphRequests.WithLabelValues(method, statusClass(status)).Inc()
	r.graphLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
