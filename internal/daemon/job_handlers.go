package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tracklift/internal/api"
	"tracklift/internal/logging"
	"tracklift/internal/queue"
)

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		JobDBPath:     status.JobDBPath,
		CatalogDBPath: status.CatalogDBPath,
		LockFilePath:  status.LockFilePath,
		Workflow:      api.FromStatusSummary(status.Workflow),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listJobs(w, r)
	case http.MethodPost:
		s.enqueueJob(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listJobs(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		parsed, ok := queue.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status: "+value)
			return
		}
		statuses = append(statuses, parsed)
	}

	jobs, err := s.jobSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobs})
}

func (s *apiServer) enqueueJob(w http.ResponseWriter, r *http.Request) {
	var req api.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ArchiveURL) == "" {
		s.writeError(w, http.StatusBadRequest, "file_url required")
		return
	}

	job, err := s.daemon.jobs.Enqueue(r.Context(), req.ArchiveURL, req.ObjectKey, req.SizeMB)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.daemon.workflow.Kick()
	if s.daemon.notifier != nil {
		if err := s.daemon.notifier.NotifyJobQueued(r.Context(), job); err != nil {
			s.logger.Warn("deliver queue notification", logging.Error(err))
		}
	}
	s.writeJSON(w, http.StatusCreated, api.JobResponse{Job: api.FromJob(job)})
}

// handleJobSubpath routes /api/jobs/{id}, /api/jobs/{id}/process, and
// /api/jobs/{id}/progress.
func (s *apiServer) handleJobSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	switch action {
	case "":
		s.auth.operator(func(w http.ResponseWriter, r *http.Request) {
			s.describeJob(w, r, id)
		})(w, r)
	case "process":
		s.auth.operator(func(w http.ResponseWriter, r *http.Request) {
			s.processJob(w, r, id)
		})(w, r)
	case "progress":
		s.auth.webhook(func(w http.ResponseWriter, r *http.Request) {
			s.updateProgress(w, r, id)
		})(w, r)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) describeJob(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	job, err := s.jobSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: *job})
}

// processJob triggers processing of one job outside the poll loop. The
// claim transition inside the processor still decides whether the job
// actually runs.
func (s *apiServer) processJob(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	job, err := s.daemon.jobs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if !job.Status.Retryable() {
		s.writeJSON(w, http.StatusOK, api.ProcessResponse{
			Started: false,
			Message: "already " + string(job.Status),
		})
		return
	}

	runCtx := s.runCtx
	if runCtx == nil {
		runCtx = context.Background()
	}
	go func() {
		if err := s.daemon.processor.Process(runCtx, id); err != nil {
			s.logger.Warn("manual job processing failed",
				logging.Int64(logging.FieldJobID, id),
				logging.Error(err))
		}
	}()
	s.writeJSON(w, http.StatusOK, api.ProcessResponse{Started: true})
}

// updateProgress is the worker-facing webhook: a merge-patch where only
// fields present in the payload change the stored job.
func (s *apiServer) updateProgress(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req api.ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Phase == nil && req.UploadMbps == nil {
		s.writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	job, err := s.daemon.jobs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	if err := s.daemon.jobs.UpdateProgress(r.Context(), id, req.Phase, req.UploadMbps); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updated, err := s.jobSvc.Describe(r.Context(), id)
	if err != nil || updated == nil {
		s.writeError(w, http.StatusInternalServerError, "reload job")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: *updated})
}

func (s *apiServer) handleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.objects == nil {
		s.writeError(w, http.StatusServiceUnavailable, "object storage not configured")
		return
	}

	var req api.PresignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.FileName) == "" {
		s.writeError(w, http.StatusBadRequest, "file_name required")
		return
	}

	result, err := s.daemon.objects.PresignPut(req.FileName, req.ContentType)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
