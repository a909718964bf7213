package archive

import (
	"context"
	"fmt"

	"github.com/Zxoir/twitter-month-archiver/pkg/checkpoint"
	"github.com/Zxoir/twitter-month-archiver/pkg/config"
	"github.com/Zxoir/twitter-month-archiver/pkg/logger"
	"github.com/Zxoir/twitter-month-archiver/pkg/twitter"
	"github.com/Zxoir/twitter-month-archiver/pkg/window"
)

// Engine walks one account's timeline page by page until the month window
// is exhausted, checkpointing after every page.
type Engine struct {
	client      TwitterClient
	checkpoints *checkpoint.Manager
	cfg         *config.Config
	logger      logger.Logger
}

// NewEngine creates a pagination engine for one account/month run
func NewEngine(client TwitterClient, checkpoints *checkpoint.Manager, cfg *config.Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		client:      client,
		checkpoints: checkpoints,
		cfg:         cfg,
		logger:      log,
	}
}

// Run drives pagination to exhaustion and returns the final state. An
// existing, non-exhausted checkpoint is resumed from its cursor; an already
// exhausted one is returned as-is, making completed runs idempotent.
//
// Transient API failures never surface here; the gateway absorbs them.
// Anything that does surface (auth, not-found, malformed data) aborts the
// run with the last-good checkpoint left on disk.
func (e *Engine) Run(ctx context.Context, runID string, identity twitter.AccountIdentity, month string, win window.Window, forceRestart bool) (*checkpoint.RunState, error) {
	state, err := e.resumeOrCreate(runID, identity, month, win, forceRestart)
	if err != nil {
		return nil, err
	}
	if state.Exhausted {
		e.logger.InfoWithFields("run already exhausted, nothing to fetch", map[string]interface{}{
			"handle": state.Handle,
			"month":  state.Month,
			"posts":  len(state.Posts),
		})
		return state, nil
	}

	// Cursor loop protection, carried across resume
	seen := make(map[string]bool)
	if state.NextCursor != "" {
		seen[state.NextCursor] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := e.client.FetchTimeline(ctx, state.UserID, twitter.TimelineQuery{
			StartTime:       win.Start,
			EndTime:         win.End,
			PageSize:        e.cfg.API.PageSize,
			PaginationToken: state.NextCursor,
			ExcludeReplies:  !e.cfg.Archive.IncludeReplies,
			ExcludeRetweets: !e.cfg.Archive.IncludeRetweets,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", state.PagesFetched+1, err)
		}

		kept := 0
		for _, post := range page.Data {
			if e.keep(post, win) {
				state.Posts = append(state.Posts, post)
				kept++
			}
		}

		state.PagesFetched++
		stop, reason := e.stopReason(page, win, seen)
		state.NextCursor = page.Meta.NextToken

		// Persist before requesting the next page, so a crash loses at most
		// the in-flight page
		if err := e.checkpoints.Save(state); err != nil {
			return nil, fmt.Errorf("saving checkpoint after page %d: %w", state.PagesFetched, err)
		}

		e.logger.InfoWithFields("page fetched", map[string]interface{}{
			"handle":        state.Handle,
			"page":          state.PagesFetched,
			"items":         len(page.Data),
			"kept":          kept,
			"total_posts":   len(state.Posts),
			"next_cursor":   page.Meta.NextToken != "",
		})

		if stop {
			state.Exhausted = true
			if err := e.checkpoints.Save(state); err != nil {
				return nil, fmt.Errorf("saving final checkpoint: %w", err)
			}
			e.logger.InfoWithFields("pagination exhausted", map[string]interface{}{
				"handle": state.Handle,
				"month":  state.Month,
				"pages":  state.PagesFetched,
				"posts":  len(state.Posts),
				"reason": reason,
			})
			return state, nil
		}
	}
}

// resumeOrCreate loads an existing checkpoint or creates a fresh one
func (e *Engine) resumeOrCreate(runID string, identity twitter.AccountIdentity, month string, win window.Window, forceRestart bool) (*checkpoint.RunState, error) {
	if forceRestart {
		if err := e.checkpoints.Delete(); err != nil {
			return nil, err
		}
	}

	existing, err := e.checkpoints.Load()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Exhausted {
			e.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
				"handle":        existing.Handle,
				"month":         existing.Month,
				"pages_fetched": existing.PagesFetched,
				"posts":         len(existing.Posts),
			})
		}
		return existing, nil
	}

	return e.checkpoints.Create(runID, identity, month, win)
}

// keep applies the inclusion policy and the window filter to one item
func (e *Engine) keep(post twitter.Post, win window.Window) bool {
	if !e.cfg.Archive.IncludeReplies && post.IsReply() {
		return false
	}
	if !e.cfg.Archive.IncludeRetweets && post.IsRetweet() {
		return false
	}

	ts, ok := post.CreatedAt()
	if !ok {
		e.logger.WarnWithFields("dropping item without parseable created_at", map[string]interface{}{
			"post_id": post.ID(),
		})
		return false
	}
	return win.Contains(ts)
}

// stopReason evaluates the per-page stop conditions. The feed is
// newest-first, so once a page's oldest item is at or before the window
// start no later page can contain in-window items; stopping there is what
// keeps quota spend minimal.
func (e *Engine) stopReason(page *twitter.TimelineResponse, win window.Window, seen map[string]bool) (bool, string) {
	if len(page.Data) == 0 || page.Meta.ResultCount == 0 {
		return true, "empty page"
	}
	if len(page.Data) < e.cfg.API.PageSize {
		return true, "short page"
	}
	if oldest, ok := page.OldestCreatedAt(); ok && !oldest.After(win.Start) {
		return true, "oldest item at or before window start"
	}

	token := page.Meta.NextToken
	if token == "" {
		return true, "no next cursor"
	}
	if seen[token] {
		return true, "repeated cursor"
	}
	seen[token] = true
	return false, ""
}
