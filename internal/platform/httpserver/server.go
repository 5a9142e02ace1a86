package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	plancatalog "acphealth/contexts/coverage-catalog/plan-catalog"
	paymentledger "acphealth/contexts/finance-core/payment-ledger"
	authorization "acphealth/contexts/identity-access/authorization-service"
	userregistry "acphealth/contexts/identity-access/user-registry"
	userserrors "acphealth/contexts/identity-access/user-registry/domain/errors"
	admindashboardservice "acphealth/contexts/internal-ops/admin-dashboard-service"
	claimsengine "acphealth/contexts/policy-operations/claims-engine"
	policyledger "acphealth/contexts/policy-operations/policy-ledger"
	"acphealth/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "acphealth/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	users     userregistry.Module
	authz     authorization.Module
	plans     plancatalog.Module
	policies  policyledger.Module
	claims    claimsengine.Module
	payments  paymentledger.Module
	dashboard admindashboardservice.Module
	swagger   bool
}

type Dependencies struct {
	Users           userregistry.Module
	Authorization   authorization.Module
	Plans           plancatalog.Module
	Policies        policyledger.Module
	Claims          claimsengine.Module
	Payments        paymentledger.Module
	Dashboard       admindashboardservice.Module
	Logger          *slog.Logger
	Addr            string
	EnableSwaggerUI bool
}

func New(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := deps.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		users:     deps.Users,
		authz:     deps.Authorization,
		plans:     deps.Plans,
		policies:  deps.Policies,
		claims:    deps.Claims,
		payments:  deps.Payments,
		dashboard: deps.Dashboard,
		swagger:   deps.EnableSwaggerUI,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	if s.swagger {
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.handle("POST /api/v1/users/register", s.handleUserRegister)
	s.handle("POST /api/v1/auth/token", s.handleAuthToken)
	s.handle("GET /api/v1/users", s.handleUserList)
	s.handle("GET /api/v1/users/{user_id}", s.handleUserGet)
	s.handle("POST /api/v1/users/{user_id}/role", s.handleUserAssignRole)
	s.handle("POST /api/v1/users/{user_id}/deactivate", s.handleUserDeactivate)
	s.handle("POST /api/v1/providers/links", s.handleProviderLink)
	s.handle("DELETE /api/v1/providers/links", s.handleProviderUnlink)

	s.handle("POST /api/v1/authz/check", s.handleAuthzCheck)
	s.handle("POST /api/v1/authz/check-batch", s.handleAuthzCheckBatch)

	s.handle("POST /api/v1/plans", s.handlePlanCreate)
	s.handle("GET /api/v1/plans", s.handlePlanList)
	s.handle("GET /api/v1/plans/{plan_id}", s.handlePlanGet)
	s.handle("POST /api/v1/plans/{plan_id}/activate", s.handlePlanActivate)
	s.handle("POST /api/v1/plans/{plan_id}/retire", s.handlePlanRetire)

	s.handle("POST /api/v1/policies", s.handlePolicyIssue)
	s.handle("GET /api/v1/policies", s.handlePolicyList)
	s.handle("GET /api/v1/policies/{policy_id}", s.handlePolicyGet)
	s.handle("POST /api/v1/policies/{policy_id}/activate", s.handlePolicyActivate)
	s.handle("POST /api/v1/policies/{policy_id}/cancel", s.handlePolicyCancel)

	s.handle("POST /api/v1/claims", s.handleClaimFile)
	s.handle("GET /api/v1/claims", s.handleClaimList)
	s.handle("GET /api/v1/claims/summary", s.handleClaimsSummary)
	s.handle("GET /api/v1/claims/{claim_id}", s.handleClaimGet)
	s.handle("POST /api/v1/claims/{claim_id}/review", s.handleClaimReview)
	s.handle("POST /api/v1/claims/{claim_id}/approve", s.handleClaimApprove)
	s.handle("POST /api/v1/claims/{claim_id}/deny", s.handleClaimDeny)

	s.handle("POST /api/v1/payments", s.handlePaymentRecord)
	s.handle("GET /api/v1/payments", s.handlePaymentList)
	s.handle("GET /api/v1/payments/summary", s.handleRevenueSummary)
	s.handle("GET /api/v1/payments/{payment_id}", s.handlePaymentGet)

	s.handle("GET /api/v1/admin/overview", s.handleAdminOverview)
	s.handle("POST /api/v1/admin/actions", s.handleAdminRecordAction)
	s.handle("GET /api/v1/admin/actions", s.handleAdminListActions)
}

// handle wraps a route with request metrics keyed on the route pattern.
func (s *Server) handle(pattern string, handler http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(recorder, r)
		metrics.ObserveHTTPRequest(method, path, strconv.Itoa(recorder.status), time.Since(started))
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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authUser is the authenticated caller as resolved from the bearer token.
// Each bounded context converts it into its own actor type at the call site.
type authUser struct {
	ID   string
	Role string
}

func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (authUser, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
		return authUser{}, false
	}

	user, err := s.users.Service.ResolveToken(r.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		switch {
		case errors.Is(err, userserrors.ErrUserInactive):
			writeError(w, http.StatusUnauthorized, "user_inactive", err.Error())
		case errors.Is(err, userserrors.ErrBadCredentials),
			errors.Is(err, userserrors.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return authUser{}, false
	}
	return authUser{ID: user.UserID, Role: string(user.Role)}, true
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, target any, writeErrorFn func(http.ResponseWriter, int, string, string)) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeErrorFn(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func parseListWindow(r *http.Request) (limit int, offset int) {
	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
