package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/project-finance/internal/config"
	"github.com/iwvelando/project-finance/internal/portfolio"
	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/iwvelando/project-finance/pkg/output"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	maxWorkers    int
	timeout       time.Duration
	version       string
}

// NewHandler constructs the HTTP handler that serves the sizing API.
func NewHandler(logger *zap.Logger, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: constants.DefaultMaxUploadSizeBytes,
		maxWorkers:    constants.DefaultServerMaxWorkers,
		timeout:       constants.DefaultRequestTimeout,
		version:       "dev",
	}
	if cfg != nil {
		if cfg.UploadSizeBytes() > 0 {
			h.maxUploadSize = cfg.UploadSizeBytes()
		}
		if cfg.MaxWorkers > 0 {
			h.maxWorkers = cfg.MaxWorkers
		}
		if cfg.Timeout() > 0 {
			h.timeout = cfg.Timeout()
		}
	}
	if trimmed := strings.TrimSpace(version); trimmed != "" {
		h.version = trimmed
	}

	mux := http.NewServeMux()

	// Sizing API endpoint (multipart file upload or raw YAML body)
	mux.HandleFunc("/api/sizing", h.handleSizing)

	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

type sizingResponse struct {
	output.Report
	CSV string `json:"csv"`
}

func (h *handler) handleSizing(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSizing"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	configBytes, status, err := h.readConfig(r)
	if err != nil {
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	h.runSizing(w, r.Context(), configBytes, op)
}

// readConfig returns the uploaded YAML from a multipart "file" field or
// from the raw request body.
func (h *handler) readConfig(r *http.Request) ([]byte, int, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var source io.Reader = r.Body
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			return nil, uploadErrorStatus(err), h.uploadError(err, "failed to parse upload")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("missing configuration file")
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", "server.readConfig"),
					zap.Error(closeErr),
				)
			}
		}()
		source = file
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, source); err != nil {
		return nil, uploadErrorStatus(err), h.uploadError(err, "failed to read configuration")
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return nil, http.StatusBadRequest, fmt.Errorf("missing configuration file")
	}
	return buf.Bytes(), http.StatusOK, nil
}

func uploadErrorStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *handler) uploadError(err error, msg string) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Errorf("upload exceeds limit of %d bytes", h.maxUploadSize)
	}
	return fmt.Errorf("%s: %v", msg, err)
}

func (h *handler) runSizing(w http.ResponseWriter, ctx context.Context, configBytes []byte, op string) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if cfg.CashFlowsPath() != "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "cashFlowsFile is not supported for uploaded configurations; provide cashFlows inline", op)
		return
	}

	warnings, err := cfg.ValidateConfiguration()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid configuration: %v", err), op)
		return
	}

	settings, err := cfg.Settings()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if settings.Workers > h.maxWorkers {
		settings.Workers = h.maxWorkers
	}

	assets, err := cfg.PortfolioAssets(settings)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to build assets: %v", err), op)
		return
	}

	strategy, err := cfg.Strategy(h.logger)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	runner, err := portfolio.NewRunner(h.logger, strategy, settings)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	result, err := runner.Run(ctx, assets)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.respondErrorWithOp(w, status, fmt.Sprintf("sizing failed: %v", err), op)
		return
	}

	response := sizingResponse{
		Report: output.NewReport(result),
		CSV:    output.CsvString(result),
	}
	response.Warnings = append(warnings, response.Warnings...)

	h.logger.Info("sizing computed",
		zap.String("op", op),
		zap.String("runId", result.RunID),
		zap.Int("assets", len(result.Assets)),
		zap.Int("ledgerRows", len(result.Ledger)),
		zap.Duration("duration", result.Duration),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("sizing request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
