package health

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCheck pings the inventory connection pool.
type PostgresCheck struct {
	Pool *pgxpool.Pool
}

func (c *PostgresCheck) Name() string { return "postgres" }

func (c *PostgresCheck) Run(ctx context.Context) Result {
	if err := c.Pool.Ping(ctx); err != nil {
		return result(c.Name(), StatusCritical, err.Error())
	}
	return result(c.Name(), StatusOK, "")
}

// RedisCheck pings the message bus connection.
type RedisCheck struct {
	Client *redis.Client
}

func (c *RedisCheck) Name() string { return "redis" }

func (c *RedisCheck) Run(ctx context.Context) Result {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return result(c.Name(), StatusCritical, err.Error())
	}
	return result(c.Name(), StatusOK, "")
}

// SchedulerCheck reports warning if the Refresh Scheduler's last completed
// tick is older than StaleAfter — the scheduler goroutine has wedged or
// died without the process noticing.
type SchedulerCheck struct {
	LastTick   func() time.Time
	StaleAfter time.Duration
}

func (c *SchedulerCheck) Name() string { return "scheduler" }

func (c *SchedulerCheck) Run(ctx context.Context) Result {
	last := c.LastTick()
	if last.IsZero() {
		return result(c.Name(), StatusUnknown, "no tick observed yet")
	}
	age := time.Since(last)
	if age > c.StaleAfter {
		return result(c.Name(), StatusWarning, fmt.Sprintf("last tick was %s ago", age.Round(time.Second)))
	}
	return result(c.Name(), StatusOK, "")
}
