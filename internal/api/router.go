package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/api/handlers"
	"github.com/certportal/certportal/internal/api/middleware"
	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/bulk"
	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/issuance"
	"github.com/certportal/certportal/internal/service"
)

// Deps bundles everything the router wires into handlers
type Deps struct {
	Logger   *zap.Logger
	Catalog  *catalog.Catalog
	Backend  *backend.Client
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Journal  *service.JournalService
	Registry *issuance.Registry
	Creator  *bulk.Creator
	Checks   map[string]handlers.Check
	// StaticDir serves a built portal UI when set and present on disk.
	StaticDir string
}

// NewRouter creates and configures the HTTP router
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	// Health checks (no auth required)
	healthHandler := handlers.NewHealthHandler(d.Checks)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Create handlers
	authHandler := handlers.NewAuthHandler(d.Auth, d.Profiles, logger)
	catalogHandler := handlers.NewCatalogHandler(d.Catalog)
	workflowHandler := handlers.NewWorkflowHandler(d.Registry)
	bulkHandler := handlers.NewBulkHandler(d.Creator, d.Backend, logger)
	refHandler := handlers.NewReferenceHandler(d.Backend)
	profileHandler := handlers.NewProfileHandler(d.Profiles, d.Journal, d.Backend)

	authMiddleware := middleware.NewAuthMiddleware(d.Auth, logger)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/user-login", authHandler.UserLogin)
		r.Post("/auth/first-login", authHandler.FirstLogin)
		r.Post("/auth/verify-otp", authHandler.VerifyOTP)
		r.Post("/auth/set-password", authHandler.SetPassword)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogHandler.Tree)
			r.Get("/categories", catalogHandler.Categories)
			r.Get("/categories/{category}/letter-types", catalogHandler.LetterTypes)
			r.Get("/categories/{category}/letter-types/{letterType}/subtypes", catalogHandler.Subtypes)
			r.Get("/fields", catalogHandler.Fields)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/session", authHandler.Session)

			r.Get("/profile", profileHandler.GetProfile)
			r.Put("/profile", profileHandler.UpdateProfile)

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", refHandler.ListDocuments)
				r.Put("/{studentID}/{docType}/status", refHandler.UpdateDocumentStatus)
			})

			// Administrator-only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Route("/workflows", func(r chi.Router) {
					r.Post("/", workflowHandler.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", workflowHandler.Get)
						r.Delete("/", workflowHandler.Delete)
						r.Post("/actions", workflowHandler.Apply)
						r.Post("/validate", workflowHandler.Validate)
						r.Post("/otp/send", workflowHandler.SendOTP)
						r.Post("/otp/resend", workflowHandler.ResendOTP)
						r.Post("/otp/verify", workflowHandler.VerifyOTP)
						r.Post("/otp/cancel", workflowHandler.CancelOTP)
						r.Post("/preview", workflowHandler.Preview)
						r.Get("/preview", workflowHandler.PreviewContent)
						r.Delete("/preview", workflowHandler.DismissPreview)
						r.Post("/submit", workflowHandler.Submit)
					})
				})

				r.Post("/bulk/csv", bulkHandler.UploadCSV)
				r.Post("/bulk/download", bulkHandler.DownloadZip)

				r.Route("/people", func(r chi.Router) {
					r.Get("/", refHandler.ListPeople)
					r.Post("/", refHandler.CreatePerson)
					r.Put("/{id}", refHandler.UpdatePerson)
					r.Delete("/{id}", refHandler.DeletePerson)
				})
				r.Route("/batches", func(r chi.Router) {
					r.Get("/", refHandler.ListBatches)
					r.Post("/", refHandler.CreateBatch)
					r.Put("/{id}", refHandler.UpdateBatch)
					r.Delete("/{id}", refHandler.DeleteBatch)
				})
				r.Route("/categories", func(r chi.Router) {
					r.Get("/", refHandler.ListCategories)
					r.Post("/", refHandler.CreateCategory)
					r.Put("/{id}", refHandler.UpdateCategory)
					r.Delete("/{id}", refHandler.DeleteCategory)
				})

				r.Get("/certificates", refHandler.ListCertificates)
				r.Get("/certificates/{id}/download", refHandler.DownloadCertificate)
				r.Get("/codeletters", refHandler.ListCodeLetters)
				r.Get("/letters/{id}/download", refHandler.DownloadLetter)
				r.Put("/letters/{id}/status", refHandler.UpdateLetterStatus)

				r.Get("/admins", profileHandler.ListAdmins)
				r.Get("/journal", profileHandler.Journal)
			})
		})
	})

	// Serve the built portal UI, if any
	if d.StaticDir != "" {
		if info, err := os.Stat(d.StaticDir); err == nil && info.IsDir() {
			fileServer(r, "/", http.Dir(d.StaticDir))
		}
	}

	return r
}

// fileServer conveniently sets up a http.FileServer handler to serve static files
func fileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))

		filePath := strings.TrimPrefix(r.URL.Path, pathPrefix)
		if filePath == "" || filePath == "/" {
			filePath = "/index.html"
		}

		// Unknown paths fall back to index.html for client-side routing
		f, err := root.Open(filepath.Clean(filePath))
		if err != nil {
			r.URL.Path = pathPrefix + "/index.html"
		} else {
			f.Close()
		}

		fs.ServeHTTP(w, r)
	})
}
