// Package checkpoint persists pagination progress for one account/month run.
//
// A checkpoint is written after every fetched page, so an interrupt (signal,
// crash, kill) loses at most the in-flight page and a later run resumes from
// the recorded cursor instead of re-spending quota from page one. Writes go
// through a temp-file-and-rename sequence, so the file on disk is always a
// complete, parseable document. A failed run's checkpoint is never deleted;
// the presence of a final artifact, not the checkpoint, marks completion.
package checkpoint
