package rest

import (
	"encoding/json"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	StateHandler(w http.ResponseWriter, _ *http.Request)
}

type StateProvider interface {
	State() *entity.Snapshot
}

type handlers struct {
	state StateProvider
}

func NewHandlers(state StateProvider) Handlers {
	return &handlers{
		state: state,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// StateHandler - serves the latest board snapshot as JSON. Before the first
// round starts there is nothing to show yet.
func (that *handlers) StateHandler(w http.ResponseWriter, _ *http.Request) {
	snapshot := that.state.State()
	if snapshot == nil {
		http.Error(w, "board is starting", http.StatusServiceUnavailable)
		return
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
