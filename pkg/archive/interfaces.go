package archive

import (
	"context"

	"github.com/Zxoir/twitter-month-archiver/pkg/twitter"
)

// TwitterClient defines the API operations the archiver depends on
type TwitterClient interface {
	LookupUser(ctx context.Context, handle string) (*twitter.AccountIdentity, error)
	FetchTimeline(ctx context.Context, userID string, q twitter.TimelineQuery) (*twitter.TimelineResponse, error)
}
