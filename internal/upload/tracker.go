// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/gemchat-tui/internal/api"
	"github.com/jeranaias/gemchat-tui/internal/model"
)

// ErrNotTracked is returned when an operation references an unknown file ID.
var ErrNotTracked = errors.New("file is not tracked")

// =============================================================================
// STATUS
// =============================================================================

// Status is the lifecycle state of one tracked file.
type Status int

const (
	StatusPending Status = iota
	StatusUploading
	StatusSuccess
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusUploading:
		return "uploading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Settled reports whether the upload has resolved either way.
func (s Status) Settled() bool {
	return s == StatusSuccess || s == StatusError
}

// =============================================================================
// FILE
// =============================================================================

// File is one tracked attachment candidate.
type File struct {
	ID     string
	Path   string
	Name   string
	Status Status
	Result *api.UploadResult
	Err    error
}

// =============================================================================
// TRACKER
// =============================================================================

// Uploader performs the network upload. Implemented by *api.Client.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (*api.UploadResult, error)
}

// Tracker holds the attachment set for the next submission. The pending
// count covers files in Pending or Uploading; the submit affordance is gated
// on it being zero.
type Tracker struct {
	mu       sync.Mutex
	client   Uploader
	limiter  *rate.Limiter
	files    []*File
	byID     map[string]*File
	pending  int
	onSettle func(f *File)
}

// NewTracker creates a tracker. onSettle, when non-nil, fires after each
// upload resolves (success or error); it runs on the uploading goroutine.
func NewTracker(client Uploader, onSettle func(*File)) *Tracker {
	return &Tracker{
		client: client,
		// Bursts of drag-and-drop starts are smoothed to protect the
		// upload endpoint.
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 3),
		byID:     make(map[string]*File),
		onSettle: onSettle,
	}
}

// Add registers a local file as Pending and returns its tracking record.
func (t *Tracker) Add(path string) *File {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := &File{
		ID:     uuid.NewString(),
		Path:   path,
		Name:   filepath.Base(path),
		Status: StatusPending,
	}
	t.files = append(t.files, f)
	t.byID[f.ID] = f
	t.pending++
	return f
}

// Upload performs the network upload for one tracked file. Call it on its
// own goroutine (or a tea.Cmd); it blocks on the rate limiter first.
func (t *Tracker) Upload(ctx context.Context, id string) error {
	t.mu.Lock()
	f, ok := t.byID[id]
	if !ok {
		t.mu.Unlock()
		return ErrNotTracked
	}
	f.Status = StatusUploading
	t.mu.Unlock()

	if err := t.limiter.Wait(ctx); err != nil {
		t.settle(id, nil, err)
		return err
	}

	result, err := t.client.UploadFile(ctx, f.Path)
	t.settle(id, result, err)
	return err
}

// settle records the outcome. A file removed mid-upload is gone from
// tracking; its late result is dropped (the network upload itself is not
// cancelled, matching the removal semantics).
func (t *Tracker) settle(id string, result *api.UploadResult, err error) {
	t.mu.Lock()
	f, ok := t.byID[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	if !f.Status.Settled() {
		t.pending--
	}
	if err != nil {
		f.Status = StatusError
		f.Err = err
	} else {
		f.Status = StatusSuccess
		f.Result = result
	}
	cb := t.onSettle
	t.mu.Unlock()

	if cb != nil {
		cb(f)
	}
}

// Remove drops a file from tracking. An unsettled file leaves the pending
// count with it; a settled one just disappears from the attachment set.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.byID[id]
	if !ok {
		return false
	}
	if !f.Status.Settled() {
		t.pending--
	}
	delete(t.byID, id)
	for i, tracked := range t.files {
		if tracked.ID == id {
			t.files = append(t.files[:i], t.files[i+1:]...)
			break
		}
	}
	return true
}

// PendingCount returns how many files have not settled yet.
func (t *Tracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Files returns a snapshot of the tracked files in add order.
func (t *Tracker) Files() []File {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]File, 0, len(t.files))
	for _, f := range t.files {
		out = append(out, *f)
	}
	return out
}

// Attachments returns the attachment records for successfully uploaded
// files only.
func (t *Tracker) Attachments() []model.Attachment {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []model.Attachment
	for _, f := range t.files {
		if f.Status != StatusSuccess || f.Result == nil {
			continue
		}
		out = append(out, model.Attachment{
			FileID:   f.Result.FileID,
			Name:     f.Result.OriginalName,
			MimeType: f.Result.MimeType,
			URI:      f.Result.FileURI,
		})
	}
	return out
}

// Clear drops all tracked files, typically after a successful submission.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = nil
	t.byID = make(map[string]*File)
	t.pending = 0
}
