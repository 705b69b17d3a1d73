package status

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// SharedFetcher collapses concurrent fetches of the same report into one
// request. Several sessions may follow one report.
type SharedFetcher struct {
	Fetcher Fetcher

	group singleflight.Group
}

func NewSharedFetcher(f Fetcher) *SharedFetcher {
	return &SharedFetcher{Fetcher: f}
}

// Fetch returns the shared result, or ctx.Err() when the caller gives up
// first. The in-flight request keeps running for the remaining callers.
func (s *SharedFetcher) Fetch(ctx context.Context, reportID string) ([]byte, error) {
	ch := s.group.DoChan(reportID, func() (any, error) {
		return s.Fetcher.Fetch(context.WithoutCancel(ctx), reportID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}
