package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/posturestack/posture-engine/internal/models"
	"github.com/posturestack/posture-engine/internal/utils"
)

// In-memory fleet store stub for local development. Serves canned telemetry
// and keeps snapshots/recommendations in memory so full evaluation runs work
// against it.
type store struct {
	mu              sync.Mutex
	snapshots       map[string][]models.ScoreSnapshot
	recommendations map[string][]models.Recommendation
}

func main() {
	st := &store{
		snapshots:       make(map[string][]models.ScoreSnapshot),
		recommendations: make(map[string][]models.Recommendation),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/fleet/config/services", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"services": []models.Service{
				{ID: "checkout", Name: "Checkout", Owner: "payments-team"},
				{ID: "payments", Name: "Payments", Owner: "payments-team"},
				{ID: "inventory", Name: "Inventory", Owner: "catalog-team"},
			},
		})
	})

	mux.HandleFunc("/api/v1/fleet/config/scoring", func(w http.ResponseWriter, _ *http.Request) {
		// No stored document; the engine falls back to its defaults.
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/v1/fleet/config/slo", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/v1/fleet/config/rules", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("/api/v1/fleet/metrics", func(w http.ResponseWriter, r *http.Request) {
		serviceID := r.URL.Query().Get("serviceId")
		windowStart, err := utils.ParseRFC3339(r.URL.Query().Get("windowStart"))
		if err != nil {
			windowStart = time.Now().Add(-7 * 24 * time.Hour)
		}
		samples := make([]models.MetricSample, 0, 7)
		for day := 0; day < 7; day++ {
			ts := time.Now().Add(-time.Duration(day) * 24 * time.Hour)
			if ts.Before(windowStart) {
				continue
			}
			samples = append(samples, models.MetricSample{
				ServiceID:        serviceID,
				Timestamp:        ts,
				UptimePercent:    99.5 - float64(day)*0.3,
				LatencyP95:       420 + float64(day)*40,
				LatencyP99:       900 + float64(day)*60,
				ErrorRatePercent: 0.4 + float64(day)*0.2,
				Throughput:       1200,
			})
		}
		writeJSON(w, map[string]any{"samples": samples})
	})

	mux.HandleFunc("/api/v1/fleet/incidents", func(w http.ResponseWriter, r *http.Request) {
		serviceID := r.URL.Query().Get("serviceId")
		incidents := []models.IncidentRecord{}
		if serviceID == "checkout" {
			ended := time.Now().Add(-40 * time.Hour)
			incidents = append(incidents, models.IncidentRecord{
				ID:        "inc-1",
				ServiceID: serviceID,
				Severity:  models.SeverityHigh,
				Category:  "deployment",
				StartTime: time.Now().Add(-48 * time.Hour),
				EndTime:   &ended,
				Status:    models.IncidentResolved,
			})
		}
		writeJSON(w, map[string]any{"incidents": incidents})
	})

	mux.HandleFunc("/api/v1/fleet/dependencies", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"edges": []models.DependencyEdge{
				{SourceServiceID: "checkout", TargetServiceID: "payments", Type: "http", IsRequired: true},
				{SourceServiceID: "checkout", TargetServiceID: "inventory", Type: "http", IsRequired: false},
				{SourceServiceID: "payments", TargetServiceID: "inventory", Type: "grpc", IsRequired: false},
			},
		})
	})

	mux.HandleFunc("/api/v1/fleet/snapshots", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var snapshot models.ScoreSnapshot
			if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			st.mu.Lock()
			st.snapshots[snapshot.ServiceID] = append(st.snapshots[snapshot.ServiceID], snapshot)
			st.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			serviceID := r.URL.Query().Get("serviceId")
			st.mu.Lock()
			history := append([]models.ScoreSnapshot(nil), st.snapshots[serviceID]...)
			st.mu.Unlock()
			sort.Slice(history, func(i, j int) bool { return history[i].ComputedAt.After(history[j].ComputedAt) })
			writeJSON(w, map[string]any{"snapshots": history})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/fleet/recommendations", func(w http.ResponseWriter, r *http.Request) {
		serviceID := r.URL.Query().Get("serviceId")
		st.mu.Lock()
		recs := append([]models.Recommendation(nil), st.recommendations[serviceID]...)
		st.mu.Unlock()
		writeJSON(w, map[string]any{"recommendations": recs})
	})

	mux.HandleFunc("/api/v1/fleet/recommendations/open", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			ServiceID       string                  `json:"serviceId"`
			Recommendations []models.Recommendation `json:"recommendations"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		st.mu.Lock()
		kept := make([]models.Recommendation, 0)
		for _, rec := range st.recommendations[payload.ServiceID] {
			if rec.Status != models.RecommendationOpen {
				kept = append(kept, rec)
			}
		}
		st.recommendations[payload.ServiceID] = append(kept, payload.Recommendations...)
		st.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	logger := log.New(log.Writer(), "mock-store ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
