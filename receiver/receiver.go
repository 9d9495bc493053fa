package receiver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	messages "github.com/kpaschen/fcmerge/lib/kafka"
	"github.com/kpaschen/fcmerge/lib/merge"
	"github.com/kpaschen/fcmerge/lib/reporter"
	"github.com/kpaschen/fcmerge/lib/settings"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	REQUEST_QUEUE_SIZE = 16
)

var (
	receivedRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fcmerge_received_requests_total",
			Help: "Total number of received merge requests.",
		},
	)
	failedRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fcmerge_failed_requests_total",
			Help: "Total number of merge requests that could not be completed.",
		},
	)
	queuedRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fcmerge_queued_requests",
			Help: "number of merge requests waiting to be processed",
		},
	)
	requestDurationHist = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:                            "fcmerge_request_duration_milliseconds_histogram",
			Help:                            "Duration of merge requests including storing the result.",
			Buckets:                         prometheus.ExponentialBuckets(1, 4, 10),
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  10,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
	)
)

func init() {
	prometheus.MustRegister(receivedRequests)
	prometheus.MustRegister(failedRequests)
	prometheus.MustRegister(queuedRequests)
	prometheus.MustRegister(requestDurationHist)
}

type acceptedResponse struct {
	RequestID string `json:"requestId"`
}

// A MergeProcessor runs merge requests and publishes their result tables.
// Requests received over HTTP are queued and handled one at a time by a
// background goroutine.
type MergeProcessor struct {
	settings settings.MergeSettings
	store    reporter.TableStore
	logger   *zap.Logger

	// mu guards closed and sends on requestQueue.
	mu           sync.Mutex
	closed       bool
	requestQueue chan *messages.MergeRequest
	done         sync.WaitGroup
}

func NewMergeProcessor(config settings.MergeSettings, store reporter.TableStore, logger *zap.Logger) *MergeProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	processor := &MergeProcessor{
		settings:     config.ComputeSettingsFields(),
		store:        store,
		logger:       logger,
		requestQueue: make(chan *messages.MergeRequest, REQUEST_QUEUE_SIZE),
	}

	processor.done.Add(1)
	go func() {
		defer processor.done.Done()
		logger.Info("waiting for merge requests")
		for req := range processor.requestQueue {
			queuedRequests.Dec()
			if err := processor.Process(context.Background(), req); err != nil {
				logger.Error("merge request failed", zap.String("requestId", req.RequestID), zap.Error(err))
			}
		}
	}()
	return processor
}

// requestSettings takes the merge parameters from the request and the
// storage parameters from the processor.
func (p *MergeProcessor) requestSettings(req *messages.MergeRequest) settings.MergeSettings {
	s := req.Config
	s.ResultsDirectory = p.settings.ResultsDirectory
	s.Store = p.settings.Store
	s.KafkaURL = p.settings.KafkaURL
	s.KafkaTopic = p.settings.KafkaTopic
	s.RedisAddress = p.settings.RedisAddress
	s.MaxRowsPerRowGroup = p.settings.MaxRowsPerRowGroup
	s.AssociationMatrixFile = p.settings.AssociationMatrixFile
	if s.Workers == 0 {
		s.Workers = p.settings.Workers
	}
	return s
}

// Process runs one merge request and stores its table.
func (p *MergeProcessor) Process(ctx context.Context, req *messages.MergeRequest) error {
	start := time.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	logger := p.logger.With(zap.String("requestId", req.RequestID))

	merger := merge.NewMerger(p.requestSettings(req), logger)
	out, err := merger.Run(ctx, req.Inputs())
	if err != nil {
		failedRequests.Inc()
		return err
	}
	if err = reporter.Publish(ctx, p.store, out, p.settings.AssociationMatrixFile, logger); err != nil {
		failedRequests.Inc()
		return err
	}
	elapsed := time.Since(start)
	requestDurationHist.Observe(float64(elapsed.Milliseconds()))
	logger.Info("merge request processed",
		zap.String("runId", out.RunID),
		zap.String("table", out.Table.Name),
		zap.Int64("elapsedMs", elapsed.Milliseconds()))
	return nil
}

func decodeMergeRequest(r *http.Request) (*messages.MergeRequest, error) {
	req := &messages.MergeRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, fmt.Errorf("failed to decode merge request: %w", err)
	}
	if len(req.Clusters) == 0 {
		return nil, fmt.Errorf("merge request has no clusters")
	}
	return req, nil
}

// ReceiveMergeRequest queues a JSON merge request and answers with its id.
func (p *MergeProcessor) ReceiveMergeRequest(w http.ResponseWriter, r *http.Request) {
	req, err := decodeMergeRequest(r)
	if err != nil {
		p.logger.Warn("rejecting merge request", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	receivedRequests.Inc()

	if err := p.enqueue(req); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(acceptedResponse{RequestID: req.RequestID})
}

func (p *MergeProcessor) enqueue(req *messages.MergeRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("merge processor is shutting down")
	}
	select {
	case p.requestQueue <- req:
		queuedRequests.Inc()
		return nil
	default:
		return fmt.Errorf("merge request queue is full")
	}
}

// Shutdown stops accepting requests, waits for queued ones to finish and
// closes the table store. Only the first call does anything.
func (p *MergeProcessor) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.requestQueue)
	p.mu.Unlock()

	p.done.Wait()
	return p.store.Close()
}
