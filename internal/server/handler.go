package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"dreamforge/internal/auth"
	"dreamforge/internal/career"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type resumeRequest struct {
	ResumeText string `json:"resumeText"`
}

type chatRequest struct {
	Messages []types.ChatMessage `json:"messages"`
}

type gapRequest struct {
	TargetRole string `json:"targetRole"`
}

func startSpan(r *http.Request, name string) (context.Context, trace.Span) {
	return otel.Tracer("dreamforge.api").Start(r.Context(), name)
}

// fail records err on the span, logs server-side failures and writes the error body
func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
	if statusFor(err) >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed")
	}
	writeError(w, err)
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.register")
	defer span.End()

	var req types.RegisterInput
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	user, err := s.deps.Career.Register(ctx, req)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) signInHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.signin")
	defer span.End()

	var req types.SignInInput
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	session, err := s.deps.Career.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.profile")
	defer span.End()

	view, err := s.deps.Career.Profile(ctx, auth.FromContext(ctx))
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) onboardingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.onboarding")
	defer span.End()

	var req types.OnboardingInput
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	user, err := s.deps.Career.Onboard(ctx, auth.FromContext(ctx), req)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) resumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.resume")
	defer span.End()

	var req resumeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("request.resume_length", len(req.ResumeText)))

	result, err := s.deps.Career.Ingest(ctx, auth.FromContext(ctx), req.ResumeText)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("skills_linked", result.SkillsLinked))
	writeJSON(w, http.StatusOK, result)
}

// uploadHandler accepts a multipart "file" field and ingests its extracted text
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.resume_upload")
	defer span.End()

	if err := r.ParseMultipartForm(s.uploadLimit()); err != nil {
		var maxBytesErr *http.MaxBytesError
		if !stderrors.As(err, &maxBytesErr) {
			err = errors.NewValidationError(errors.ErrCodeInvalidRequest, "request must be multipart/form-data with a file field", err)
		}
		s.fail(w, span, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, span, errors.NewValidationError(errors.ErrCodeInvalidRequest, "file field is required", err).
			WithFields(map[string]string{"file": "is required"}))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, span, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read uploaded file", err))
		return
	}
	span.SetAttributes(
		attribute.String("upload.filename", header.Filename),
		attribute.Int64("upload.size", header.Size),
	)

	result, err := s.deps.Career.UploadResume(ctx, auth.FromContext(ctx), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) checkInHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.checkin")
	defer span.End()

	result, err := s.deps.Career.CheckIn(ctx, auth.FromContext(ctx))
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// jobsHandler answers 200 even when every feed failed; the failure is in the body
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.jobs")
	defer span.End()

	result, err := s.deps.Career.SearchJobs(ctx, auth.FromContext(ctx), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(
		attribute.Int("jobs.count", len(result.Jobs)),
		attribute.String("jobs.source", result.Source),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) interviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.interview_feedback")
	defer span.End()

	var req types.InterviewInput
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	feedback, err := s.deps.Career.AnalyzeInterview(ctx, auth.FromContext(ctx), req.Question, req.Transcript)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.chat")
	defer span.End()

	var req chatRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("chat.messages", len(req.Messages)))

	reply, err := s.deps.Career.Chat(ctx, auth.FromContext(ctx), req.Messages)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.Bool("chat.degraded", reply.Degraded))
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) gapHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "api.gap")
	defer span.End()

	var req gapRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	result, err := s.deps.Career.GapAnalysis(ctx, auth.FromContext(ctx), req.TargetRole)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// projectionHandler is pure computation; it only needs the session for access control
func (s *Server) projectionHandler(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r, "api.projection")
	defer span.End()

	query := r.URL.Query()
	years, err := strconv.Atoi(query.Get("years"))
	if err != nil {
		s.fail(w, span, errors.NewValidationError(errors.ErrCodeInvalidRequest, "years must be a whole number", err).
			WithFields(map[string]string{"years": "must be a whole number between 1 and 10"}))
		return
	}

	projection, err := career.ProjectCareer(years, query.Get("focus"))
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}
