package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadenrich/internal/fetcher"
	"github.com/sells-group/leadenrich/internal/model"
	"github.com/sells-group/leadenrich/internal/pipeline"
	"github.com/sells-group/leadenrich/internal/qualify"
	"github.com/sells-group/leadenrich/internal/store"
)

var servePort int

// runRequest starts an enrichment run over a server-local lead sheet.
type runRequest struct {
	Input      string `json:"input"`
	Niche      string `json:"niche,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	Threshold  *int   `json:"threshold,omitempty"`
	SampleSize *int   `json:"sample_size,omitempty"`
}

// startRunFunc creates a run and processes it in the background.
type startRunFunc func(ctx context.Context, req runRequest) (*model.Run, error)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review API server",
	Long:  "HTTP API for the review UI: start runs, read results, set include-anyway overrides, and fetch the qualified set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		mux := buildMux(ctx, st, makeStartRun(st))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// makeStartRun wires the enrichment pipeline behind the POST /runs handler.
// The run is created synchronously; crawling and classification happen in a
// background goroutine that updates the run status as it goes.
func makeStartRun(st store.Store) startRunFunc {
	return func(ctx context.Context, req runRequest) (*model.Run, error) {
		niche := cfg.Niche
		if req.Niche != "" {
			niche.Description = req.Niche
		}
		if req.Strategy != "" {
			niche.Strategy = req.Strategy
		}
		if req.Threshold != nil {
			niche.Threshold = *req.Threshold
		}
		if req.SampleSize != nil {
			niche.SampleSize = *req.SampleSize
		}

		sheet, err := fetcher.ReadLeadSheet(req.Input, fetcher.LeadSheetOptions{
			SampleSize: niche.SampleSize,
		})
		if err != nil {
			return nil, eris.Wrap(err, "read lead sheet")
		}

		extractor, err := initExtractor(niche)
		if err != nil {
			return nil, err
		}

		run, err := st.CreateRun(ctx, niche.Description, niche.Strategy, niche.Threshold, sheet.Header)
		if err != nil {
			return nil, eris.Wrap(err, "create run")
		}

		go func() {
			log := zap.L().With(zap.String("run_id", run.ID))
			if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning, ""); err != nil {
				log.Error("update run status", zap.Error(err))
				return
			}

			runner := &pipeline.Runner{
				Fetcher:   pipeline.NewHTTPFetcher(cfg.Fetch),
				Extractor: extractor,
			}
			records := runner.Run(ctx, sheet.Leads)

			if err := st.SaveResults(ctx, run.ID, sheet.Leads, records); err != nil {
				log.Error("save results", zap.Error(err))
				_ = st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed, err.Error())
				return
			}
			if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusComplete, ""); err != nil {
				log.Error("update run status", zap.Error(err))
				return
			}
			log.Info("run complete", zap.Int("leads", len(sheet.Leads)))
		}()

		return run, nil
	}
}

// buildMux assembles the review API routes.
func buildMux(ctx context.Context, st store.Store, start startRunFunc) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /runs", func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Input == "" {
			writeError(w, http.StatusBadRequest, "input is required")
			return
		}

		run, err := start(ctx, req)
		if err != nil {
			zap.L().Error("start run failed", zap.String("input", req.Input), zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		writeJSON(w, http.StatusAccepted, run)
	})

	mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		runs, err := st.ListRuns(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	})

	mux.HandleFunc("GET /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetRun(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	mux.HandleFunc("GET /runs/{id}/records", func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		if _, err := st.GetRun(r.Context(), runID); err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		leads, records, err := st.GetResults(r.Context(), runID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"leads":   leads,
			"records": records,
		})
	})

	mux.HandleFunc("GET /runs/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		run, err := st.GetRun(r.Context(), runID)
		if err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		_, records, err := st.GetResults(r.Context(), runID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, qualify.Summarize(records, run.Threshold))
	})

	mux.HandleFunc("GET /runs/{id}/qualified", func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		run, err := st.GetRun(r.Context(), runID)
		if err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}

		threshold := run.Threshold
		if s := r.URL.Query().Get("threshold"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid threshold")
				return
			}
			threshold = n
		}

		leads, records, err := st.GetResults(r.Context(), runID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		overrides, err := st.GetOverrides(r.Context(), runID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		ranked := qualify.Qualified(leads, records, overrides, threshold)
		writeJSON(w, http.StatusOK, map[string]any{
			"threshold": threshold,
			"qualified": ranked,
		})
	})

	mux.HandleFunc("PUT /runs/{id}/overrides/{index}", func(w http.ResponseWriter, r *http.Request) {
		runID, index, ok := overrideTarget(w, r, st)
		if !ok {
			return
		}
		if err := st.SetOverride(r.Context(), runID, index, model.OverrideInclude); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"row_index": index,
			"decision":  model.OverrideInclude,
		})
	})

	mux.HandleFunc("DELETE /runs/{id}/overrides/{index}", func(w http.ResponseWriter, r *http.Request) {
		runID, index, ok := overrideTarget(w, r, st)
		if !ok {
			return
		}
		if err := st.ClearOverride(r.Context(), runID, index); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"row_index": index,
			"decision":  model.OverrideSkip,
		})
	})

	return mux
}

func overrideTarget(w http.ResponseWriter, r *http.Request, st store.Store) (string, int, bool) {
	runID := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid row index")
		return "", 0, false
	}
	if _, err := st.GetRun(r.Context(), runID); err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return "", 0, false
	}
	return runID, index, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
