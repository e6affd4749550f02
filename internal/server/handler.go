package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"atscore/internal/types"
	"atscore/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "atscore.api"

	// llmKeyHeader carries a caller's own model key for enhanced feedback
	llmKeyHeader = "X-LLM-API-Key"

	defaultMultipartMemory = 32 << 20
)

// analyzeHandler scores a resume sent as JSON text
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.analyze")
	defer span.End()

	var req types.AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		recordSpanError(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	req.ResumePath = ""
	req.FeedbackAPIKey = r.Header.Get(llmKeyHeader)

	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.Bool("request.job_description", req.JobDescription != nil),
		attribute.Bool("request.enhanced_feedback", req.UseEnhancedFeedback),
	)

	s.runAnalysis(w, r.WithContext(ctx), span, req)
}

// analyzeFileHandler scores an uploaded resume document
func (s *Server) analyzeFileHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.analyze_file")
	defer span.End()

	maxMemory := s.MaxRequestSize
	if maxMemory <= 0 {
		maxMemory = defaultMultipartMemory
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		recordSpanError(span, err, "validation")
		writeErrorResponse(w, "Invalid multipart form", bodyErrorMessage(err), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.Logger.Warn("Failed to remove multipart files", "error", err)
		}
	}()

	file, header, err := r.FormFile("resume")
	if err != nil {
		recordSpanError(span, err, "validation")
		writeErrorResponse(w, "Missing resume file", "multipart field 'resume' is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if !utils.IsSupportedResume(header.Filename) {
		err := fmt.Errorf("unsupported resume file type %q", utils.GetFileExtension(header.Filename))
		recordSpanError(span, err, "validation")
		writeErrorResponse(w, "Unsupported file type", err.Error(), http.StatusBadRequest)
		return
	}

	path, cleanup, err := saveUpload(file, header.Filename)
	if err != nil {
		recordSpanError(span, err, "io")
		writeErrorResponse(w, "Failed to store upload", err.Error(), http.StatusInternalServerError)
		return
	}
	defer cleanup()

	req := types.AnalyzeRequest{
		ResumePath:          path,
		UseEnhancedFeedback: strings.EqualFold(r.FormValue("use_enhanced_feedback"), "true"),
		FeedbackAPIKey:      r.Header.Get(llmKeyHeader),
	}
	if _, ok := r.MultipartForm.Value["job_description"]; ok {
		job := r.FormValue("job_description")
		req.JobDescription = &job
	}

	span.SetAttributes(
		attribute.String("request.file_type", utils.GetFileExtension(header.Filename)),
		attribute.Int64("request.file_size", header.Size),
		attribute.Bool("request.job_description", req.JobDescription != nil),
	)

	s.runAnalysis(w, r.WithContext(ctx), span, req)
}

// runAnalysis answers 400 for invalid requests, 422 for failed analyses
// and 200 with the UnifiedResult otherwise
func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, span trace.Span, req types.AnalyzeRequest) {
	if req.UseEnhancedFeedback && req.FeedbackAPIKey != "" {
		s.Logger.Debug("Using caller supplied LLM key", "api_key_prefix", maskAPIKey(req.FeedbackAPIKey))
	}

	result, err := s.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		recordSpanError(span, err, "validation")
		writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
		return
	}

	status := http.StatusOK
	if result.IsError() {
		span.SetAttributes(attribute.String("error.type", "analysis"))
		status = http.StatusUnprocessableEntity
	} else {
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("ats.score", result.ATSScore),
			attribute.String("ats.grade", result.Metadata.Grade),
			attribute.Bool("cached", result.Metadata.Cached),
		)
	}

	writeJSON(w, status, result, s.Logger)
}

// structureHandler returns the structured form of a resume
func (s *Server) structureHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.structure")
	defer span.End()

	var req types.StructureRequest
	if err := parseJSONRequest(r, &req); err != nil {
		recordSpanError(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		recordSpanError(span, err, "validation")
		writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
		return
	}

	resume, err := s.Analyzer.Structure(ctx, req.ResumeText)
	if err != nil {
		recordSpanError(span, err, "structuring")
		writeErrorResponse(w, "Failed to structure resume", err.Error(), http.StatusUnprocessableEntity)
		return
	}

	span.SetAttributes(
		attribute.Int("resume.skills", len(resume.Skills)),
		attribute.Int("resume.experience", len(resume.Experience)),
	)
	writeJSON(w, http.StatusOK, resume, s.Logger)
}

// saveUpload copies an uploaded file into a private temp directory. The
// base name is kept so the extractor can dispatch on its extension.
func saveUpload(src io.Reader, filename string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "atscore-upload-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, "resume"+utils.GetFileExtension(filepath.Base(filename)))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		cleanup()
		return "", nil, err
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func recordSpanError(span trace.Span, err error, kind string) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", kind))
}
