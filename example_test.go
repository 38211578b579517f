package presignx_test

import (
	"fmt"
	"time"

	"github.com/gostratum/presignx"
)

// ExampleDefaultConfig shows the defaults applied before the environment is read.
func ExampleDefaultConfig() {
	cfg := presignx.DefaultConfig()

	fmt.Println(cfg.Provider)
	fmt.Println(cfg.Expiration)

	// Output:
	// aws
	// 1h0m0s
}

// ExamplePlanner shows how uploads are renamed while downloads keep their key.
func ExamplePlanner() {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	planner := presignx.NewPlanner(time.Hour,
		presignx.WithClock(func() time.Time { return now }),
		presignx.WithKeyGenerator(presignx.NoOpKeyGenerator{}),
	)

	put := planner.Plan(presignx.Request{Key: "photo.png", Prefix: "uploads", Method: presignx.MethodPut}, nil)
	get := planner.Plan(presignx.Request{Key: "docs/a.txt"}, &presignx.PresignOptions{Expiration: time.Minute})

	fmt.Println(put.Key, put.ExpiresAt.Format(time.RFC3339))
	fmt.Println(get.Method, get.Key, get.ExpiresAt.Format(time.RFC3339))

	// Output:
	// uploads/photo.png 2025-01-02T04:04:05Z
	// GET docs/a.txt 2025-01-02T03:05:05Z
}
