package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gorm.io/gorm"

	"pcwl/territory/internal/common"
	"pcwl/territory/internal/db"
	"pcwl/territory/internal/models/entities"
)

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(gormDB *gorm.DB, cache common.CacheInterface, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		pgstatus := "ok"
		pgDetails := "Database Connected"
		if err := db.Ping(ctx, gormDB); err != nil {
			pgstatus = "down"
			pgDetails = err.Error()
		}
		services["database"] = entities.ServiceStatus{
			Status:  pgstatus,
			Details: pgDetails,
		}

		// round-trip a sentinel through whichever cache backend is configured
		cacheStatus := "ok"
		cacheDetails := "Cache reachable"
		var sentinel string
		cache.Set("HEALTH_SENTINEL", "ok", 5*time.Second)
		if !cache.Get("HEALTH_SENTINEL", &sentinel) || sentinel != "ok" {
			cacheStatus = "down"
			cacheDetails = "cache round-trip failed"
		}
		services["cache"] = entities.ServiceStatus{
			Status:  cacheStatus,
			Details: cacheDetails,
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		if overallStatus != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
