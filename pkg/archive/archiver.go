package archive

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Zxoir/twitter-month-archiver/pkg/checkpoint"
	"github.com/Zxoir/twitter-month-archiver/pkg/config"
	"github.com/Zxoir/twitter-month-archiver/pkg/errors"
	"github.com/Zxoir/twitter-month-archiver/pkg/logger"
	"github.com/Zxoir/twitter-month-archiver/pkg/storage"
	"github.com/Zxoir/twitter-month-archiver/pkg/twitter"
	"github.com/Zxoir/twitter-month-archiver/pkg/window"
)

// Archiver sequences the full export for a list of accounts. Accounts are
// processed strictly one at a time: pagination is inherently sequential, and
// a single shared quota is simplest to account for without concurrency.
type Archiver struct {
	client TwitterClient
	cfg    *config.Config
	store  *storage.Manager
	logger logger.Logger
}

// AccountResult records the outcome for one account
type AccountResult struct {
	Handle   string
	Artifact *storage.Artifact
	Err      error
}

// Summary aggregates the outcomes of one run
type Summary struct {
	Results   []AccountResult
	Succeeded int
	Failed    int
}

// New creates an archiver backed by a real API client
func New(cfg *config.Config, log logger.Logger) (*Archiver, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	client := twitter.NewClient(cfg.API, cfg.RateLimit, log)
	return NewWithClient(client, cfg, log)
}

// NewWithClient creates an archiver with a caller-supplied client
func NewWithClient(client TwitterClient, cfg *config.Config, log logger.Logger) (*Archiver, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}
	return &Archiver{
		client: client,
		cfg:    cfg,
		store:  store,
		logger: log,
	}, nil
}

// Run archives one month of posts for each handle in order. A failure on
// one account is recorded and the run moves on, except authentication
// failures, which abort the whole run since no later account can succeed.
func (a *Archiver) Run(ctx context.Context, handles []string, month string, forceRestart bool) (*Summary, error) {
	win, err := window.Resolve(month)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, raw := range handles {
		handle := twitter.SanitizeHandle(raw)

		artifact, err := a.archiveAccount(ctx, handle, month, win, forceRestart)
		if err != nil {
			summary.Results = append(summary.Results, AccountResult{Handle: handle, Err: err})
			summary.Failed++

			if isAuthError(err) {
				a.logger.WithError(err).Error("authentication failed, aborting run")
				return summary, fmt.Errorf("authentication failed: %w", err)
			}
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}

			a.logger.WithError(err).WithField("handle", handle).Error("account archive failed")
			continue
		}

		summary.Results = append(summary.Results, AccountResult{Handle: handle, Artifact: artifact})
		summary.Succeeded++
	}
	return summary, nil
}

// archiveAccount runs the full pipeline for one account: identity lookup,
// pagination to exhaustion, final artifact emission.
func (a *Archiver) archiveAccount(ctx context.Context, handle, month string, win window.Window, forceRestart bool) (*storage.Artifact, error) {
	runID := uuid.NewString()
	log := a.logger.WithFields(map[string]interface{}{
		"handle": handle,
		"month":  month,
		"run_id": runID,
	})
	log.Info("archiving account")

	identity, err := a.client.LookupUser(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", handle, err)
	}

	checkpoints, err := checkpoint.NewManager(a.cfg.Output.BaseDirectory, handle, month, a.logger)
	if err != nil {
		return nil, err
	}

	engine := NewEngine(a.client, checkpoints, a.cfg, a.logger)
	state, err := engine.Run(ctx, runID, *identity, month, win, forceRestart)
	if err != nil {
		// The last-good checkpoint stays on disk for a later resume
		return nil, err
	}

	artifact := &storage.Artifact{
		Username:   state.Handle,
		UserID:     state.UserID,
		Month:      state.Month,
		StartTime:  win.Start,
		EndTime:    win.End,
		Count:      len(state.Posts),
		Posts:      state.Posts,
		RunID:      state.RunID,
		ExportedAt: time.Now().UTC(),
	}
	if err := a.store.WriteArtifact(artifact); err != nil {
		return nil, fmt.Errorf("writing final artifact: %w", err)
	}

	log.InfoWithFields("archive complete", map[string]interface{}{
		"posts": artifact.Count,
		"pages": state.PagesFetched,
		"path":  a.store.ArtifactPath(handle, month),
	})
	return artifact, nil
}

func isAuthError(err error) bool {
	var apiErr *errors.Error
	return stderrors.As(err, &apiErr) && apiErr.Type == errors.ErrorTypeAuth
}
