// Package handlers provides the HTTP handlers of the dead stock service:
// account registration and login, the reconciliation upload endpoint with its
// JSON/XLSX/CSV output formats, the latest-run and recent-records lookups, and
// the health endpoint.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/noine32/deadstock-search-replit/auth"
	"github.com/noine32/deadstock-search-replit/data"
	"github.com/noine32/deadstock-search-replit/interfaces"
	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/metrics"
	"github.com/noine32/deadstock-search-replit/report"
	"github.com/noine32/deadstock-search-replit/stockparser"
	"github.com/noine32/deadstock-search-replit/storage"
	"github.com/noine32/deadstock-search-replit/validation"
)

// Multipart form field names for the three uploads.
const (
	FieldPurchaseHistory = "purchase_history"
	FieldInventory       = "inventory"
	FieldIdentityMaster  = "identity_master"
)

const maxUploadMemory = 32 << 20

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new account.
func HandleRegister(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSONBody(r, &req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := authSvc.Register(r.Context(), req.Username, req.Password); err != nil {
			logging.Warn("Registration failed", "username", req.Username, "error", err)
			RespondWithError(w, http.StatusConflict, "registration failed")
			return
		}

		RespondWithJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
	}
}

// HandleLogin verifies credentials and returns a bearer token.
func HandleLogin(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSONBody(r, &req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, err := authSvc.Login(r.Context(), req.Username, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			logging.Error("Login failed", "username", req.Username, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "login failed")
			return
		}

		RespondWithJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

// HandleReconcile runs the whole pipeline over the three uploaded datasets:
// ingest, identity resolution, reconciliation, ordering/grouping, quality
// report, persistence, and finally the response in the requested format
// (json, xlsx or csv).
func HandleReconcile(container *data.Container, store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !container.BeginUpdate() {
			RespondWithError(w, http.StatusConflict, "a reconciliation run is already in progress")
			return
		}
		defer container.EndUpdate()

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			RespondWithError(w, http.StatusBadRequest, "expected multipart form upload")
			return
		}

		purchaseBytes, err := formFileBytes(r, FieldPurchaseHistory)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		inventoryBytes, err := formFileBytes(r, FieldInventory)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		identityBytes, err := formFileBytes(r, FieldIdentityMaster)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		format := r.URL.Query().Get("format")
		switch format {
		case "", "json", "xlsx", "csv":
		default:
			RespondWithError(w, http.StatusBadRequest, "format must be json, xlsx or csv")
			return
		}

		start := time.Now()
		result, err := runPipeline(purchaseBytes, inventoryBytes, identityBytes, start)
		if err != nil {
			respondPipelineError(w, err)
			return
		}

		// Report artifacts render before persistence: workbook warnings
		// belong on the published run.
		var workbook, csvBytes []byte
		switch format {
		case "xlsx":
			var warnings []report.Warning
			workbook, warnings, err = report.BuildWorkbook(result.Groups)
			if err != nil {
				logging.Error("Failed to build report workbook", "error", err)
				RespondWithError(w, http.StatusInternalServerError, "failed to build report")
				return
			}
			result.Warnings = warnings
			for _, warning := range warnings {
				logging.Warn("Report group skipped", "facility", warning.Facility, "message", warning.Message)
			}
		case "csv":
			csvBytes, err = report.BuildCSV(result.Records)
			if err != nil {
				logging.Error("Failed to build report CSV", "error", err)
				RespondWithError(w, http.StatusInternalServerError, "failed to build report")
				return
			}
		}

		user, _ := auth.UserFromContext(r.Context())
		logging.Info("Reconciliation run completed",
			"user", user,
			"records", len(result.Records),
			"dead_stock", result.Quality.DeadStockRecords,
			"groups", len(result.Groups),
			"warnings", len(result.Warnings),
			"duration", time.Since(start).String())

		metrics.ReconciliationRuns.WithLabelValues("ok").Inc()
		metrics.ReconciledRecordsTotal.Add(float64(len(result.Records)))
		metrics.DeadStockRecordsTotal.Add(float64(result.Quality.DeadStockRecords))

		if err := store.SaveRecords(r.Context(), result.Records, start); err != nil {
			logging.Error("Failed to persist reconciliation run", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "failed to persist results")
			return
		}

		container.StoreRun(result)

		switch format {
		case "", "json":
			RespondWithJSON(w, http.StatusOK, result)
		case "xlsx":
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", "attachment; filename=deadstock_report.xlsx")
			w.Header().Set("X-Report-Warnings", strconv.Itoa(len(result.Warnings)))
			if _, err := w.Write(workbook); err != nil {
				logging.Warn("Failed to write report workbook", "error", err)
			}
		case "csv":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", "attachment; filename=deadstock_report.csv")
			if _, err := w.Write(csvBytes); err != nil {
				logging.Warn("Failed to write report CSV", "error", err)
			}
		}
	}
}

// runPipeline executes the synchronous reconciliation pipeline over raw
// dataset bytes. Any stage failure aborts the remaining stages.
func runPipeline(purchaseBytes, inventoryBytes, identityBytes []byte, now time.Time) (*data.RunResult, error) {
	purchaseSet, err := stockparser.ParseSpreadsheet(purchaseBytes, stockparser.DatasetPurchaseHistory)
	if err != nil {
		return nil, err
	}
	inventorySet, err := stockparser.ParseDelimited(inventoryBytes, stockparser.DatasetInventory)
	if err != nil {
		return nil, err
	}
	identitySet, err := stockparser.ParseDelimited(identityBytes, stockparser.DatasetIdentityMaster)
	if err != nil {
		return nil, err
	}

	purchase := stockparser.PurchaseHistoryRecords(purchaseSet)
	inventory := stockparser.InventoryRecords(inventorySet)
	identity := stockparser.BuildIdentityMap(identitySet)

	records, err := stockparser.Reconcile(purchase, inventory, identity, now)
	if err != nil {
		return nil, err
	}

	ordered := stockparser.Order(records)
	groups := stockparser.GroupByFacility(ordered)
	quality := validation.ReportDataQuality(ordered, purchase, stockparser.IdentityDuplicates(identitySet))

	return &data.RunResult{
		Records:     ordered,
		Groups:      groups,
		Quality:     quality,
		Warnings:    []report.Warning{},
		GeneratedAt: now,
	}, nil
}

// respondPipelineError maps the pipeline error taxonomy onto HTTP statuses.
// The caller must not proceed to report generation or persistence.
func respondPipelineError(w http.ResponseWriter, err error) {
	var formatErr *stockparser.FormatError
	var schemaErr *stockparser.SchemaError
	var reconcileErr *stockparser.ReconciliationError

	switch {
	case errors.As(err, &formatErr):
		metrics.ReconciliationRuns.WithLabelValues("format_error").Inc()
		RespondWithError(w, http.StatusBadRequest, formatErr.Error())
	case errors.As(err, &schemaErr):
		metrics.ReconciliationRuns.WithLabelValues("schema_error").Inc()
		RespondWithError(w, http.StatusUnprocessableEntity, schemaErr.Error())
	case errors.As(err, &reconcileErr):
		metrics.ReconciliationRuns.WithLabelValues("reconciliation_error").Inc()
		RespondWithError(w, http.StatusUnprocessableEntity, reconcileErr.Error())
	default:
		metrics.ReconciliationRuns.WithLabelValues("internal_error").Inc()
		logging.Error("Reconciliation pipeline failed", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "reconciliation failed")
	}
	logging.Warn("Reconciliation run rejected", "error", err)
}

// HandleLatest serves the most recently published run.
func HandleLatest(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run := container.LastRun()
		if run == nil {
			RespondWithError(w, http.StatusNotFound, "no reconciliation run yet")
			return
		}
		RespondWithJSON(w, http.StatusOK, run)
	}
}

// HandleRecords serves persisted records, newest upload first.
func HandleRecords(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 500
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 10000 {
				RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and 10000")
				return
			}
			limit = n
		}

		rows, err := store.RecentRecords(r.Context(), limit)
		if err != nil {
			logging.Error("Failed to fetch persisted records", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "failed to fetch records")
			return
		}
		RespondWithJSON(w, http.StatusOK, rows)
	}
}

// HandleHealth serves the health endpoint backed by the injected checker.
func HandleHealth(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, details, httpStatus := checker.HealthCheck()
		payload := map[string]any{"status": status}
		for k, v := range details {
			payload[k] = v
		}
		RespondWithJSON(w, httpStatus, payload)
	}
}

func formFileBytes(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing upload field %q", field)
	}
	defer func(f multipart.File) {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close upload", "field", field, "error", err)
		}
	}(file)

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload %q: %w", field, err)
	}
	return raw, nil
}

func decodeJSONBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return jsonDecode(r.Body, dst)
}
