package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"spacehub/internal/config"
	"spacehub/internal/export"
	"spacehub/internal/logging"
	"spacehub/internal/metrics"
	"spacehub/internal/pass"
	"spacehub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Services bundles what the transports need. Exporter, Passes and Ready are
// optional.
type Services struct {
	Availability  *service.AvailabilityService
	Bookings      *service.BookingService
	Pricing       *service.PricingService
	Promos        *service.PromoService
	Catalog       *service.CatalogService
	Waitlist      *service.WaitlistService
	Notifications *service.NotificationService
	Checkout      *service.CheckoutService
	Exporter      *export.Exporter
	Passes        *pass.Issuer
	Ready         func(ctx context.Context) error
}

// HTTPServer exposes the JSON API alongside the gRPC service.
type HTTPServer struct {
	server *http.Server
	log    zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc *Services, auth *Auth, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           NewRouter(svc, auth, logger),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		log: logging.Component(logger, "http"),
	}
}

// NewRouter builds the chi routing tree. Health probes bypass auth.
func NewRouter(svc *Services, auth *Auth, logger *zerolog.Logger) http.Handler {
	h := &handler{svc: svc, log: logging.Component(logger, "http")}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route("/api/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Wrap)
		}

		r.Route("/facilities", func(r chi.Router) {
			r.Get("/", h.listFacilities)
			r.Post("/", h.createFacility)
			r.Get("/{id}", h.getFacility)
			r.Patch("/{id}", h.updateFacility)
			r.Delete("/{id}", h.deactivateFacility)
			r.Get("/{id}/spaces", h.listFacilitySpaces)
		})

		r.Route("/spaces", func(r chi.Router) {
			r.Get("/", h.listSpaces)
			r.Post("/", h.createSpace)
			r.Get("/{id}", h.getSpace)
			r.Patch("/{id}", h.updateSpace)
			r.Delete("/{id}", h.deactivateSpace)

			r.Get("/{id}/availability", h.checkAvailability)
			r.Get("/{id}/slots", h.availableSlots)
			r.Get("/{id}/price", h.calculatePrice)

			r.Get("/{id}/schedules", h.listSchedules)
			r.Post("/{id}/schedules", h.createSchedule)
			r.Get("/{id}/blackouts", h.listBlackouts)
			r.Post("/{id}/blackouts", h.createBlackout)
			r.Delete("/{id}/blackouts/{blackoutID}", h.deactivateBlackout)

			r.Get("/{id}/pricing-rules", h.listSpaceRules)
			r.Get("/{id}/reviews", h.listReviews)
			r.Post("/{id}/reviews", h.createReview)
			r.Get("/{id}/rating", h.spaceRating)
			r.Get("/{id}/waitlist", h.spaceWaitlist)
		})

		r.Patch("/schedules/{id}", h.updateSchedule)

		r.Route("/pricing-rules", func(r chi.Router) {
			r.Get("/", h.listRules)
			r.Post("/", h.createRule)
			r.Get("/{id}", h.getRule)
			r.Patch("/{id}", h.updateRule)
		})

		r.Route("/promo-codes", func(r chi.Router) {
			r.Post("/validate", h.validatePromo)
			r.Get("/", h.listPromos)
			r.Post("/", h.createPromo)
			r.Get("/{id}", h.getPromo)
			r.Patch("/{id}", h.updatePromo)
			r.Delete("/{id}", h.deletePromo)
			r.Post("/{id}/use", h.usePromo)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.createBooking)
			r.Get("/", h.listBookings)
			r.Post("/verify-pass", h.verifyPass)
			r.Get("/{id}", h.getBooking)
			r.Patch("/{id}", h.updateBooking)
			r.Post("/{id}/status", h.updateBookingStatus)
			r.Post("/{id}/payment-status", h.updatePaymentStatus)
			r.Post("/{id}/cancel", h.cancelBooking)
			r.Get("/{id}/qr", h.bookingQR)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Get("/{id}", h.getUser)
			r.Patch("/{id}", h.updateUser)
			r.Post("/{id}/telegram", h.linkTelegram)
			r.Get("/{id}/favorites", h.listFavorites)
			r.Put("/{id}/favorites/{spaceID}", h.addFavorite)
			r.Get("/{id}/favorites/{spaceID}", h.isFavorite)
			r.Delete("/{id}/favorites/{spaceID}", h.removeFavorite)
			r.Get("/{id}/notifications", h.userNotifications)
			r.Post("/{id}/notifications/read-all", h.markAllRead)
			r.Get("/{id}/waitlist", h.userWaitlist)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/", h.createNotification)
			r.Get("/{id}", h.getNotification)
			r.Post("/{id}/read", h.markRead)
			r.Delete("/{id}", h.deleteNotification)
		})

		r.Route("/waitlist", func(r chi.Router) {
			r.Post("/", h.joinWaitlist)
			r.Get("/{id}", h.getWaitlistEntry)
			r.Patch("/{id}", h.updateWaitlistStatus)
			r.Delete("/{id}", h.leaveWaitlist)
		})

		r.Route("/checkout/drafts", func(r chi.Router) {
			r.Post("/", h.createDraft)
			r.Get("/{id}", h.getDraft)
			r.Delete("/{id}", h.discardDraft)
			r.Post("/{id}/confirm", h.confirmDraft)
		})

		r.Get("/exports/bookings", h.exportBookings)
	})

	return r
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type handler struct {
	svc *Services
	log zerolog.Logger
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.svc.Ready != nil {
		if err := h.svc.Ready(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// requestLogger tags each request with an id and logs the outcome. The
// metric label is the matched route pattern, not the raw path.
func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDKey, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		metrics.IncHTTP(r.Method + " " + pattern)

		ev := h.log.Info()
		if recorder.status >= http.StatusInternalServerError {
			ev = h.log.Error()
		}
		ev.Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
