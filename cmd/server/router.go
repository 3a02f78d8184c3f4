package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/studiolore/mediacore/internal/batch"
	"github.com/studiolore/mediacore/internal/generation"
)

// statsResponse is the payload served by the stats endpoint.
type statsResponse struct {
	PayloadCache payloadCacheStats `json:"payload_cache"`
	MediaCache   mediaCacheStats   `json:"media_cache"`
}

type payloadCacheStats struct {
	Entries      int    `json:"entries"`
	CurrentBytes int64  `json:"current_bytes"`
	MaxBytes     int64  `json:"max_bytes"`
	CurrentSize  string `json:"current_size"`
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	Evictions    int64  `json:"evictions"`
}

type mediaCacheStats struct {
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries"`
	TotalBytes int64  `json:"total_bytes"`
	TotalSize  string `json:"total_size"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
	Evictions  int64  `json:"evictions"`
}

// describeRequest is one item of a batch description request.
type describeRequest struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
}

type describeResult struct {
	Key  string `json:"key"`
	Text string `json:"text,omitempty"`
	Err  string `json:"error,omitempty"`
}

type describeResponse struct {
	Results []describeResult `json:"results"`
}

// setupRouter creates and configures the operational HTTP surface. The
// application's business routes live in the web tier, not here.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	r.Post("/describe", app.handleDescribe)

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		payload := app.payloadCache.Stats()
		media := app.mediaCache.Stats()

		resp := statsResponse{
			PayloadCache: payloadCacheStats{
				Entries:      payload.Entries,
				CurrentBytes: payload.CurrentBytes,
				MaxBytes:     payload.MaxTotalBytes,
				CurrentSize:  humanize.IBytes(uint64(payload.CurrentBytes)),
				Hits:         payload.Hits,
				Misses:       payload.Misses,
				Evictions:    payload.Evictions,
			},
			MediaCache: mediaCacheStats{
				Entries:    media.Entries,
				MaxEntries: media.MaxEntries,
				TotalBytes: media.TotalBytes,
				TotalSize:  humanize.IBytes(uint64(media.TotalBytes)),
				Hits:       media.Hits,
				Misses:     media.Misses,
				Evictions:  media.Evictions,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			app.logger.Error("failed to encode stats response", "error", err)
		}
	})

	return r
}

// handleDescribe runs a batch of description prompts through the dispatcher
// and caches each generated text under its request key. Cached results are
// served without calling the model again.
func (app *application) handleDescribe(w http.ResponseWriter, r *http.Request) {
	if app.generator == nil {
		http.Error(w, "generation is not configured", http.StatusServiceUnavailable)
		return
	}

	var items []describeRequest
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(items) == 0 {
		http.Error(w, "request must contain at least one item", http.StatusBadRequest)
		return
	}

	results := make([]describeResult, len(items))
	var pending []generation.Request
	pendingIdx := make(map[string]int)

	for i, item := range items {
		if item.Key == "" || item.Prompt == "" {
			http.Error(w, "each item requires a key and a prompt", http.StatusBadRequest)
			return
		}
		results[i] = describeResult{Key: item.Key}
		if text, ok := app.payloadCache.Get(item.Key); ok {
			results[i].Text = string(text)
			continue
		}
		pendingIdx[item.Key] = i
		pending = append(pending, generation.Request{Key: item.Key, Prompt: item.Prompt})
	}

	if len(pending) > 0 {
		tasks := generation.Tasks(app.generator, pending)
		described, err := batch.Run(r.Context(), app.dispatcher, tasks, batch.Options[generation.Described]{
			MaxConcurrent:             app.config.Batch.MaxConcurrent,
			MinDelayBetweenDispatches: app.config.Batch.MinDelay(),
		})
		if err != nil {
			var aggErr *batch.AggregateError[generation.Described]
			if !errors.As(err, &aggErr) {
				app.logger.Error("batch description failed", "error", err)
				http.Error(w, "batch description failed", http.StatusInternalServerError)
				return
			}
			for _, f := range aggErr.Failures {
				results[pendingIdx[pending[f.Index].Key]].Err = f.Err.Error()
			}
			for _, d := range aggErr.Partial {
				if d == nil {
					continue
				}
				app.payloadCache.Set(d.Key, []byte(d.Text))
				results[pendingIdx[d.Key]].Text = d.Text
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			if err := json.NewEncoder(w).Encode(describeResponse{Results: results}); err != nil {
				app.logger.Error("failed to encode describe response", "error", err)
			}
			return
		}
		for _, d := range described {
			app.payloadCache.Set(d.Key, []byte(d.Text))
			results[pendingIdx[d.Key]].Text = d.Text
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(describeResponse{Results: results}); err != nil {
		app.logger.Error("failed to encode describe response", "error", err)
	}
}
