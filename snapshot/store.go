// Package snapshot keeps ApiData snapshots between a bulk fetch and a later render.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/n-r-w/apifetch"
)

// ErrNotFound is returned when no snapshot is stored under the key.
var ErrNotFound = errors.New("snapshot not found")

// Store saves and loads ApiData snapshots.
type Store interface {
	Save(ctx context.Context, key string, data apifetch.ApiData) error
	Load(ctx context.Context, key string) (apifetch.ApiData, error)
}

func encode(data apifetch.ApiData) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return b, nil
}

func decode(b []byte) (apifetch.ApiData, error) {
	var data apifetch.ApiData
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return data, nil
}
