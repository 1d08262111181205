package http

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/render"

	"salespulse/internal/dataset"
)

// HealthHandler reports service liveness and whether the configured data
// directory holds the expected source files.
type HealthHandler struct {
	dataDir string
	started time.Time
}

// NewHealthHandler creates a health handler for the given data directory.
func NewHealthHandler(dataDir string) *HealthHandler {
	return &HealthHandler{dataDir: dataDir, started: time.Now().UTC()}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	files := []string{
		dataset.FileOrders,
		dataset.FileOrderItems,
		dataset.FileProducts,
		dataset.FileCustomers,
		dataset.FileReviews,
		dataset.FilePayments,
	}

	missing := make([]string, 0)
	for _, file := range files {
		if _, err := os.Stat(filepath.Join(h.dataDir, file)); err != nil {
			missing = append(missing, file)
		}
	}

	status := "healthy"
	if len(missing) > 0 {
		status = "degraded"
	}

	render.JSON(w, r, map[string]interface{}{
		"status":        status,
		"uptime":        time.Since(h.started).String(),
		"data_dir":      h.dataDir,
		"missing_files": missing,
	})
}
