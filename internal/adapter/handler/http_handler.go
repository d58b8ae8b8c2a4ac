package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

type HTTPHandler struct {
	svc      port.MarketplaceService
	log      *zap.Logger
	validate *validator.Validate
}

type RegisterHTTPRequest struct {
	Username string `json:"username" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=buyer seller"`
}

type RegisterHTTPResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type ItemsHTTPRequest struct {
	Items []string `json:"items" validate:"dive,required"`
}

type CreateOrderHTTPResponse struct {
	OrderID string   `json:"order_id"`
	Items   []string `json:"items"`
	Message string   `json:"message"`
}

type MessageHTTPResponse struct {
	Message string `json:"message"`
}

func NewHTTPHandler(svc port.MarketplaceService, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:      svc,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes builds the router for the public API.
func (h *HTTPHandler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)

	buyer := api.PathPrefix("/buyer").Subrouter()
	buyer.HandleFunc("/list-of-sellers", h.ListSellers).Methods(http.MethodGet)
	buyer.HandleFunc("/seller-catalog/{seller_id}", h.SellerCatalog).Methods(http.MethodGet)
	buyer.HandleFunc("/create-order/{seller_id}", h.CreateOrder).Methods(http.MethodPost)

	seller := api.PathPrefix("/seller").Subrouter()
	seller.HandleFunc("/orders", h.SellerOrders).Methods(http.MethodGet)
	seller.HandleFunc("/create-catalog", h.CreateCatalog).Methods(http.MethodPost)

	r.Use(h.logRequests)
	return r
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterHTTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), req.Username, domain.Role(req.Type))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RegisterHTTPResponse{
		ID:      user.ID,
		Message: "Registered User Successfully.",
	})
}

func (h *HTTPHandler) ListSellers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, domain.RoleBuyer); !ok {
		return
	}

	sellers, err := h.svc.ListSellers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sellers)
}

func (h *HTTPHandler) SellerCatalog(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, domain.RoleBuyer); !ok {
		return
	}

	sellerID, err := canonicalSellerID(mux.Vars(r)["seller_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	catalog, err := h.svc.SellerCatalog(r.Context(), sellerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, domain.RoleBuyer)
	if !ok {
		return
	}

	sellerID, err := canonicalSellerID(mux.Vars(r)["seller_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req ItemsHTTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), caller.userID, sellerID, req.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CreateOrderHTTPResponse{
		OrderID: order.ID,
		Items:   order.ItemIDs,
		Message: "Order created successfully.",
	})
}

func (h *HTTPHandler) SellerOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, domain.RoleSeller)
	if !ok {
		return
	}

	orders, err := h.svc.SellerOrders(r.Context(), caller.userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) CreateCatalog(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.authorize(w, r, domain.RoleSeller)
	if !ok {
		return
	}

	var req ItemsHTTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.CreateCatalog(r.Context(), caller.userID, req.Items); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageHTTPResponse{Message: "Catalog created successfully."})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) authorize(w http.ResponseWriter, r *http.Request, role domain.Role) (identity, bool) {
	caller, err := parseIdentity(r.Header.Get(HeaderUserID), r.Header.Get(HeaderUserType))
	if err == nil {
		err = caller.require(role)
	}
	if err != nil {
		h.writeError(w, r, err)
		return identity{}, false
	}
	return caller, true
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageHTTPResponse{Message: "invalid request body"})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		msg := "invalid request body"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = "invalid field " + verrs[0].Field() + ": " + verrs[0].Tag()
		}
		writeJSON(w, http.StatusBadRequest, MessageHTTPResponse{Message: msg})
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := classify(err)
	if kind.status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, kind.status, MessageHTTPResponse{Message: kind.message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (h *HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
