package app

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/EDWINCHENC/c-transfer-unique/internal/handler"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/ratelimit"
)

type Server struct {
	router  *mux.Router
	origins []string
}

func NewServer(messageHandler *handler.MessageHandler, fileHandler *handler.FileHandler, limiter *ratelimit.Limiter, origins []string) *Server {
	router := mux.NewRouter()

	// Routes
	messageHandler.RegisterRoutes(router, limiter)
	fileHandler.RegisterRoutes(router, limiter)
	router.HandleFunc("/ping", handler.Ping).Methods("GET")

	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return &Server{router: router, origins: origins}
}

func (s *Server) Run(port string) {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With"}),
	)

	srv := &http.Server{
		Handler: cors(s.router),
		Addr:    ":" + port,
		// Generous timeouts: uploads and downloads may carry up to the
		// configured file size cap.
		WriteTimeout: 10 * time.Minute,
		ReadTimeout:  10 * time.Minute,
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(srv.ListenAndServe())
}
