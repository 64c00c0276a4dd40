package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/usecase"
)

// Server exposes runs, deployments and test summaries as JSON for the
// dashboard frontend.
type Server struct {
	github         interfaces.GitHubService
	classifier     *usecase.RunClassifier
	report         *usecase.ReportUseCase
	allowedOrigins []string
}

type ServerOptions struct {
	GitHub         interfaces.GitHubService
	Classifier     *usecase.RunClassifier
	Report         *usecase.ReportUseCase
	AllowedOrigins []string
}

func NewServer(opts ServerOptions) *Server {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = usecase.NewRunClassifier(nil)
	}
	report := opts.Report
	if report == nil {
		report = usecase.NewReportUseCase(usecase.ReportUseCaseOptions{GitHub: opts.GitHub})
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		github:         opts.GitHub,
		classifier:     classifier,
		report:         report,
		allowedOrigins: origins,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Route("/repos/{owner}/{repo}", func(r chi.Router) {
			r.Get("/runs", s.listRuns)
			r.Get("/runs/{runID}/artifacts", s.listArtifacts)
			r.Get("/runs/{runID}/summary", s.getSummary)
			r.Get("/deployments", s.listDeployments)
			r.Get("/deployments/summaries", s.listDeploymentSummaries)
		})
	})

	return r
}
