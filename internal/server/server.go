package server

import (
	"log"
	"net/http"
	"time"
)

// Handler builds the full transport surface: the request boundary under
// /api/, the per-session socket, and the observer event feed.
func Handler(hub *Hub, svc RecordingService, gateway SessionGateway, recordings RecordingLog, summaryTimeout time.Duration) http.Handler {
	if summaryTimeout <= 0 {
		summaryTimeout = 30 * time.Second
	}

	mux := http.NewServeMux()
	registerAPIRoutes(mux, svc, recordings, summaryTimeout)
	registerSessionWSRoute(mux, gateway)
	registerEventsWSRoute(mux, hub)
	return mux
}

func Serve(addr string, hub *Hub, svc RecordingService, gateway SessionGateway, recordings RecordingLog, summaryTimeout time.Duration) error {
	h := Handler(hub, svc, gateway, recordings, summaryTimeout)
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, h)
}
