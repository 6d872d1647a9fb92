package progress

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/members-portal/config"
	"github.com/irsalhamdi/members-portal/database"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

func dockerPool(t *testing.T) *dockertest.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unreachable: %v", err)
	}
	pool.MaxWait = 2 * time.Minute
	return pool
}

func run(t *testing.T, pool *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()
	res, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting %s: %v", opts.Repository, err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(res); err != nil {
			t.Logf("purging %s: %v", opts.Repository, err)
		}
	})
	return res
}

func postgresRepository(t *testing.T) Repository {
	pool := dockerPool(t)
	res := run(t, pool, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "14-alpine",
		Env:        []string{"POSTGRES_PASSWORD=postgres", "POSTGRES_DB=portal"},
	})

	cfg := config.DB{
		User:         "postgres",
		Password:     "postgres",
		Host:         res.GetHostPort("5432/tcp"),
		Name:         "portal",
		MaxIdleConns: 2,
		MaxOpenConns: 2,
		DisableTLS:   true,
	}

	var db *sqlx.DB
	err := pool.Retry(func() error {
		var err error
		if db, err = database.Open(cfg); err != nil {
			return err
		}
		return database.StatusCheck(context.Background(), db)
	})
	if err != nil {
		t.Fatalf("waiting for postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return NewPostgresRepository(db)
}

func redisRepository(t *testing.T) Repository {
	pool := dockerPool(t)
	res := run(t, pool, &dockertest.RunOptions{Repository: "redis", Tag: "7-alpine"})

	rdb := redis.NewClient(&redis.Options{Addr: res.GetHostPort("6379/tcp")})
	err := pool.Retry(func() error {
		return rdb.Ping(context.Background()).Err()
	})
	if err != nil {
		t.Fatalf("waiting for redis: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	return NewRedisRepository(rdb)
}

func TestPostgresRepository(t *testing.T) {
	testRepository(t, postgresRepository(t))
}

func TestRedisRepository(t *testing.T) {
	testRepository(t, redisRepository(t))
}

func TestMemoryRepository(t *testing.T) {
	testRepository(t, NewMemoryRepository())
}

func testRepository(t *testing.T, repo Repository) {
	ctx := context.Background()
	first := time.Date(2024, time.May, 10, 8, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	for _, id := range []string{"s2", "s1", "s2"} {
		if err := repo.AddSlide(ctx, "u1", id, first); err != nil {
			t.Fatalf("adding slide %s: %v", id, err)
		}
	}

	ids, err := repo.CompletedSlides(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"s1", "s2"}, ids); diff != "" {
		t.Errorf("slides mismatch (-want +got):\n%s", diff)
	}

	for i, at := range []time.Time{first, later} {
		if err := repo.AddDay(ctx, "u1", 1, at); err != nil {
			t.Fatalf("adding day 1 (attempt %d): %v", i, err)
		}
	}
	if err := repo.AddDay(ctx, "u1", 2, later); err != nil {
		t.Fatal(err)
	}

	days, err := repo.DayCompletions(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 {
		t.Fatalf("expected two days, got %+v", days)
	}
	if days[0].Day != 1 || !days[0].CompletedAt.Equal(first) {
		t.Errorf("expected day 1 to keep its first timestamp, got %+v", days[0])
	}
	if days[1].Day != 2 || !days[1].CompletedAt.Equal(later) {
		t.Errorf("unexpected day 2 %+v", days[1])
	}

	empty, err := repo.CompletedSlides(ctx, fmt.Sprintf("nobody-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no slides for an unknown user, got %v", empty)
	}
}
