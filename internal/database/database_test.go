package database

import (
	"context"
	"testing"
	"time"
)

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"postgres://admin:s3cret@db:5432/ry?sslmode=disable": "postgres://admin:xxxxx@db:5432/ry?sslmode=disable",
		"postgres://db:5432/ry":                              "postgres://db:5432/ry",
		"host=db user=admin password=s3cret":                 "[redacted]",
	}
	for in, want := range cases {
		if got := Redact(in); got != want {
			t.Errorf("Redact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, Config{URL: "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", MaxOpenConns: 1}, nil)
	if err == nil {
		t.Fatal("expected connection error")
	}
}
