package rpc

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gaslabs/station/station/chain"
	"github.com/gaslabs/station/station/signer"
	"github.com/gaslabs/station/station/station"
	"github.com/gaslabs/station/station/types"
	"github.com/google/uuid"
	"github.com/rs/cors"
)

// Server exposes a GasStation over the public RPC surface.
type Server struct {
	station      *station.GasStation
	bearerToken  string
	jwtSecret    []byte
	accessReload func() error
	mux          *http.ServeMux
}

// NewServer builds a Server. bearerToken, if non-empty, is required via
// the Authorization header on every request except GET / and GET
// /version. accessReload, if non-nil, backs GET
// /v1/reload_access_controller.
func NewServer(st *station.GasStation, bearerToken string, accessReload func() error) *Server {
	s := &Server{station: st, bearerToken: bearerToken, accessReload: accessReload}
	s.mount()
	return s
}

// NewServerWithJWT builds a Server that authenticates requests with JWTs
// signed by jwtSecret instead of a static shared token, so operators can
// mint scoped, expiring tokens with IssueJWT rather than distributing one
// long-lived secret.
func NewServerWithJWT(st *station.GasStation, jwtSecret []byte, accessReload func() error) *Server {
	s := &Server{station: st, jwtSecret: jwtSecret, accessReload: accessReload}
	s.mount()
	return s
}

func (s *Server) mount() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/debug_health_check", s.authenticated(s.handleDebugHealthCheck))
	mux.HandleFunc("/v1/reserve_gas", s.authenticated(s.handleReserveGas))
	mux.HandleFunc("/v1/execute_tx", s.authenticated(s.handleExecuteTx))
	mux.HandleFunc("/v1/reload_access_controller", s.authenticated(s.handleReloadAccessController))
	s.mux = mux
}

// Handler returns the server's http.Handler wrapped in permissive CORS,
// matching how browser-facing sponsor dashboards call this surface.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(s.mux)
}

func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		switch {
		case len(s.jwtSecret) > 0:
			subject, err := verifyJWT(s.jwtSecret, token)
			if err != nil {
				log.Warn("rejected request with invalid jwt", "request", reqID, "err", err)
				w.WriteHeader(http.StatusUnauthorized)
				writeJSON(w, errResponse{Error: "unauthorized"})
				return
			}
			log.Debug("authenticated request", "request", reqID, "subject", subject)
		case s.bearerToken != "":
			if token != s.bearerToken {
				log.Warn("rejected request with invalid bearer token", "request", reqID)
				w.WriteHeader(http.StatusUnauthorized)
				writeJSON(w, errResponse{Error: "unauthorized"})
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(Version))
}

func (s *Server) handleDebugHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.station.DebugCheckHealth(r.Context()); err != nil {
		log.Warn("debug health check failed", "err", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, errResponse{Error: err.Error()})
		return
	}
	w.Write([]byte("OK"))
}

func (s *Server) handleReserveGas(w http.ResponseWriter, r *http.Request) {
	var req ReserveGasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, ReserveGasResponse{Error: "malformed request body"})
		return
	}

	sponsor, resID, refs, err := s.station.ReserveGas(r.Context(), req.GasBudget, time.Duration(req.ReserveDurationSecs)*time.Second)
	if err != nil {
		writeJSON(w, ReserveGasResponse{Error: err.Error()})
		return
	}

	coins := make([]GasCoin, len(refs))
	for i, ref := range refs {
		coins[i] = GasCoin{
			ObjectID: ref.ObjectID.String(),
			Version:  ref.Version,
			Digest:   ref.Digest.String(),
		}
	}
	writeJSON(w, ReserveGasResponse{Result: &ReserveGasResult{
		SponsorAddress: sponsor.String(),
		ReservationID:  uint64(resID),
		GasCoins:       coins,
	}})
}

func (s *Server) handleExecuteTx(w http.ResponseWriter, r *http.Request) {
	var req ExecuteTxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, ExecuteTxResponse{Error: "malformed request body"})
		return
	}

	txBytes, err := base64.StdEncoding.DecodeString(req.TxBytes)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, ExecuteTxResponse{Error: "tx_bytes: invalid base64"})
		return
	}
	userSig, err := base64.StdEncoding.DecodeString(req.UserSig)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, ExecuteTxResponse{Error: "user_sig: invalid base64"})
		return
	}

	requestType := chain.WaitForEffects
	if req.RequestType == "wait_for_local_execution" {
		requestType = chain.WaitForLocalExecution
	}

	txData, err := req.toTxData(txBytes)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, ExecuteTxResponse{Error: err.Error()})
		return
	}

	effects, err := s.station.ExecuteTransaction(r.Context(), types.ReservationID(req.ReservationID), txData, signer.Signature(userSig), requestType)
	if err != nil {
		writeJSON(w, ExecuteTxResponse{Error: err.Error()})
		return
	}
	writeJSON(w, ExecuteTxResponse{Effects: &EffectsView{
		Status:          effects.Status,
		ComputationCost: effects.GasCostSummary.ComputationCost,
		StorageCost:     effects.GasCostSummary.StorageCost,
		StorageRebate:   effects.GasCostSummary.StorageRebate,
		GasObjectID:     effects.GasObject.ObjectID.String(),
		GasObjectVer:    effects.GasObject.Version,
		Digest:          effects.Digest.String(),
	}})
}

func (s *Server) handleReloadAccessController(w http.ResponseWriter, r *http.Request) {
	if s.accessReload == nil {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	if err := s.accessReload(); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, errResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode rpc response", "err", err)
	}
}
