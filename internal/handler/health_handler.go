package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/talentgate/talentgate-api/internal/config"
	"github.com/talentgate/talentgate-api/internal/utils"
)

var startedAt = time.Now()

// HealthResponse is the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// HealthCheck reports liveness. It deliberately avoids touching the database
// or Redis so load balancers see the process state, not dependency state.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
