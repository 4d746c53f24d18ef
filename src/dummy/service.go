package dummy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/blobmesh/blobmesh/src/api"
	"github.com/blobmesh/blobmesh/src/version"
	"github.com/sirupsen/logrus"
)

// handler answers one control-plane method.
type handler func(params []string) (interface{}, *api.Error)

// Service exposes the daemon's control plane: JSON-RPC style requests POSTed
// to /rpc on the node's api_port. The method table is closed; anything not
// registered here is answered with a structured unknown-method error rather
// than ignored.
type Service struct {
	sync.Mutex
	bindAddress string
	daemon      *Daemon
	handlers    map[string]handler
	server      *http.Server
	logger      *logrus.Entry
}

// NewService returns the control-plane service of daemon.
func NewService(bindAddress string, daemon *Daemon, logger *logrus.Entry) *Service {
	service := &Service{
		bindAddress: bindAddress,
		daemon:      daemon,
		logger:      logger,
	}

	service.handlers = map[string]handler{
		"announce":  service.announce,
		"peer_list": service.peerList,
		"blob_list": service.blobList,
		"status":    service.status,
		"version":   service.version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", service.makeHandler(service.dispatchRPC))

	service.server = &http.Server{
		Addr:    bindAddress,
		Handler: mux,
	}

	return service
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		s.Lock()
		defer s.Unlock()

		fn(w, r)
	}
}

// Serve blocks until the server is shut down.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving control plane")

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.WithField("error", err).Error("Control plane failed")
	}
}

// Shutdown closes the server.
func (s *Service) Shutdown() error {
	return s.server.Close()
}

func (s *Service) dispatchRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "expected POST", http.StatusMethodNotAllowed)
		return
	}

	var req api.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h, ok := s.handlers[req.Method]
	if !ok {
		s.logger.WithField("method", req.Method).Debug("Unknown method")
		s.respond(w, api.Response{Error: &api.Error{
			Code:    api.CodeUnknownMethod,
			Message: fmt.Sprintf("unknown method %q", req.Method),
		}})
		return
	}

	result, apiErr := h(req.Params)
	if apiErr != nil {
		s.respond(w, api.Response{Error: apiErr})
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.respond(w, api.Response{Result: raw})
}

func (s *Service) respond(w http.ResponseWriter, resp api.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("error", err).Error("Failed to encode response")
	}
}

func (s *Service) announce(params []string) (interface{}, *api.Error) {
	if len(params) != 1 || params[0] == "" {
		return nil, &api.Error{
			Code:    api.CodeInvalidParams,
			Message: "announce takes exactly one blob hash",
		}
	}

	if err := s.daemon.gossiper.Announce(params[0]); err != nil {
		return nil, &api.Error{
			Code:    api.CodeInternal,
			Message: err.Error(),
		}
	}

	return true, nil
}

func (s *Service) peerList(params []string) (interface{}, *api.Error) {
	if len(params) != 1 || params[0] == "" {
		return nil, &api.Error{
			Code:    api.CodeInvalidParams,
			Message: "peer_list takes exactly one blob hash",
		}
	}

	peers, err := s.daemon.table.PeerList(params[0])
	if err != nil {
		return nil, &api.Error{
			Code:    api.CodeInternal,
			Message: err.Error(),
		}
	}

	return peers, nil
}

func (s *Service) blobList(params []string) (interface{}, *api.Error) {
	blobs, err := s.daemon.table.Blobs()
	if err != nil {
		return nil, &api.Error{
			Code:    api.CodeInternal,
			Message: err.Error(),
		}
	}

	return blobs, nil
}

func (s *Service) status(params []string) (interface{}, *api.Error) {
	return s.daemon.Stats(), nil
}

func (s *Service) version(params []string) (interface{}, *api.Error) {
	return version.Version, nil
}
