package http

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"whizzcli/internal/config"
	"whizzcli/internal/infrastructure"
	"whizzcli/internal/validation"
	"whizzcli/internal/websocket"
	"whizzcli/internal/whizz"
	"whizzcli/internal/xyz"
)

// Job status values.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job tracks one conversion run started through the API.
type Job struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	SurveyFile  string       `json:"survey_file"`
	DatasetFile string       `json:"dataset_file"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Summary     *xyz.Summary `json:"summary,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// ConversionService runs survey conversions and tracks their jobs.
// Jobs live in memory; the daemon is a single-node tool and job history
// does not survive a restart.
type ConversionService struct {
	cfg     *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	hub     *websocket.Hub
	metrics *infrastructure.ConversionMetrics

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewConversionService creates the conversion service.
func NewConversionService(cfg *config.Config, paths *config.Paths, hub *websocket.Hub, metrics *infrastructure.ConversionMetrics, logger *slog.Logger) *ConversionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversionService{
		cfg:     cfg,
		paths:   paths,
		logger:  logger.With(slog.String("component", "conversion_service")),
		hub:     hub,
		metrics: metrics,
		jobs:    make(map[string]*Job),
	}
}

// StartConversion registers a job and runs the conversion in the background.
// The survey file must already exist under the surveys directory (or be an
// absolute path); the dataset lands in the datasets directory.
func (s *ConversionService) StartConversion(req *validation.ConversionRequest) (*Job, error) {
	surveyPath := req.SurveyFile
	if !filepath.IsAbs(surveyPath) {
		surveyPath = s.paths.GetSurveyPath(surveyPath)
	}

	datasetFile := req.DatasetFile
	if datasetFile == "" {
		datasetFile = config.DatasetNameFor(filepath.Base(surveyPath))
	}
	datasetPath := datasetFile
	if !filepath.IsAbs(datasetPath) {
		datasetPath = s.paths.GetDatasetPath(datasetFile)
	}

	job := &Job{
		ID:          uuid.New().String(),
		Status:      StatusPending,
		SurveyFile:  surveyPath,
		DatasetFile: datasetPath,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.runConversion(job, req)

	s.mu.RLock()
	snapshot := *job
	s.mu.RUnlock()
	return &snapshot, nil
}

// GetJob returns a snapshot of the job with the given id.
func (s *ConversionService) GetJob(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// ListJobs returns snapshots of all known jobs, newest first.
func (s *ConversionService) ListJobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}
	for i := 0; i < len(jobs); i++ {
		for j := i + 1; j < len(jobs); j++ {
			if jobs[j].CreatedAt.After(jobs[i].CreatedAt) {
				jobs[i], jobs[j] = jobs[j], jobs[i]
			}
		}
	}
	return jobs
}

func (s *ConversionService) runConversion(job *Job, req *validation.ConversionRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ConversionTimeout)
	defer cancel()
	ctx = infrastructure.WithTraceID(ctx, job.ID)

	s.setStatus(job, StatusRunning, nil, nil)
	if s.hub != nil {
		s.hub.Broadcast(websocket.TypeConversionStatus, websocket.LevelInfo, map[string]string{
			"job_id": job.ID,
			"status": StatusRunning,
		})
	}

	summary, err := s.convert(ctx, job, req)

	now := time.Now().UTC()
	if err != nil {
		s.logger.ErrorContext(ctx, "Conversion failed",
			slog.String("job_id", job.ID),
			slog.String("survey_file", job.SurveyFile),
			slog.String("error", err.Error()))
		s.setStatus(job, StatusFailed, summary, &now)
		s.mu.Lock()
		job.Error = err.Error()
		s.mu.Unlock()
		if s.hub != nil {
			s.hub.BroadcastComplete(job.ID, false, err.Error())
		}
		return
	}

	s.logger.InfoContext(ctx, "Conversion completed",
		slog.String("job_id", job.ID),
		slog.String("dataset_file", job.DatasetFile),
		slog.Int("lines_saved", summary.LinesSaved))
	s.setStatus(job, StatusCompleted, summary, &now)
	if s.hub != nil {
		s.hub.BroadcastComplete(job.ID, true, summary)
	}
}

func (s *ConversionService) convert(ctx context.Context, job *Job, req *validation.ConversionRequest) (*xyz.Summary, error) {
	convCfg := s.cfg.Conversion
	if req.MissingValue != nil {
		convCfg.MissingValue = *req.MissingValue
	}
	if req.PreviewLines > 0 {
		convCfg.PreviewLines = req.PreviewLines
	}

	session := xyz.NewSession(convCfg, s.logger)
	if s.metrics != nil {
		session.SetMetrics(s.metrics)
	}
	if s.hub != nil {
		session.SetProgress(func(lineID string, linesSaved, linesTotal int) {
			s.hub.BroadcastProgress(websocket.ProgressData{
				JobID:      job.ID,
				Stage:      "materialize",
				LineID:     lineID,
				LinesSaved: linesSaved,
				LinesTotal: linesTotal,
			})
		})
	}

	sink, err := whizz.NewWorkbookSink(job.DatasetFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset %s: %w", job.DatasetFile, err)
	}

	summary, err := session.Convert(ctx, job.SurveyFile, sink)
	if err != nil {
		return summary, err
	}
	if err := sink.Close(); err != nil {
		return summary, fmt.Errorf("failed to save dataset %s: %w", job.DatasetFile, err)
	}
	return summary, nil
}

func (s *ConversionService) setStatus(job *Job, status string, summary *xyz.Summary, completedAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Status = status
	if summary != nil {
		job.Summary = summary
	}
	if completedAt != nil {
		job.CompletedAt = completedAt
	}
}
