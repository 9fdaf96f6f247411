// Package uploads runs the two-phase asset upload protocol: presign upload
// slots for the populated document fields, transfer every file, then
// finalize storage keys into durable reference URLs mapped back onto the
// logical slot names.
package uploads

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/avast/retry-go/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tradenest/intake-workflow-backend/internal/providers/assetstore"
)

const uploadAttempts = 3

// Slot is one populated logical document slot, ephemeral: it exists between
// submit and finalize.
type Slot struct {
	Name        string
	Content     []byte
	ContentType string
}

// PartialUploadError aggregates the slots whose transfer failed. The
// pipeline never finalizes behind it: either every transfer succeeded or no
// record is submitted.
type PartialUploadError struct {
	FailedSlots []string
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("upload failed for slot(s): %s", strings.Join(e.FailedSlots, ", "))
}

// Pipeline coordinates the asset store protocol phases.
type Pipeline struct {
	Store assetstore.ClientInterface
}

func NewPipeline(store assetstore.ClientInterface) *Pipeline {
	return &Pipeline{Store: store}
}

// Run executes the three phases in order for the populated slots, ordered
// against the flow's fixed field-name list by the caller. It returns one
// durable reference URL per populated slot, keyed by logical name; slots
// never populated have no entry at all.
func (p *Pipeline) Run(ctx context.Context, slots []Slot) (map[string]string, error) {
	if len(slots) == 0 {
		return map[string]string{}, nil
	}

	// Phase 1: presign. Correspondence with the request is positional here,
	// and only here; the minted key is checked to carry the logical name
	// suffix the later phases correlate on.
	files := make([]assetstore.FileSpec, 0, len(slots))
	for _, slot := range slots {
		files = append(files, assetstore.FileSpec{Name: slot.Name, Type: slot.ContentType})
	}

	presigned, err := p.Store.Presign(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("requesting upload slots: %w", err)
	}

	keyBySlot := make(map[string]string, len(slots))
	for i, upload := range presigned {
		name := slots[i].Name
		if _, ok := SlotNameForKey(upload.Key, []string{name}); !ok {
			return nil, fmt.Errorf("presigned key %q does not encode slot name %q", upload.Key, name)
		}
		keyBySlot[name] = upload.Key
	}

	// Phase 2: transfer every file. The transfers run in parallel and the
	// pipeline joins all of them; a failed subset is reported as one
	// aggregate error and finalize never runs.
	var g errgroup.Group
	uploadErrs := make([]error, len(slots))
	for i, slot := range slots {
		i, slot := i, slot
		g.Go(func() error {
			uploadErrs[i] = retry.Do(
				func() error {
					return p.Store.Upload(ctx, presigned[i].UploadURL, slot.Content, slot.ContentType)
				},
				retry.Attempts(uploadAttempts),
				retry.DelayType(retry.BackOffDelay),
				retry.Context(ctx),
			)
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, uploadErr := range uploadErrs {
		if uploadErr != nil {
			log.WithContext(ctx).Errorf("uploading slot %q: %v", slots[i].Name, uploadErr)
			failed = append(failed, slots[i].Name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return nil, &PartialUploadError{FailedSlots: failed}
	}

	// Phase 3: finalize. The response ordering is not guaranteed to mirror
	// the request, so each reference is matched back to its logical name
	// through the key suffix, never by position.
	keys := make([]string, 0, len(slots))
	names := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, keyBySlot[slot.Name])
		names = append(names, slot.Name)
	}

	finalURLs, err := p.Store.Finalize(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("finalizing uploads: %w", err)
	}

	references := make(map[string]string, len(slots))
	for _, finalURL := range finalURLs {
		name, ok := SlotNameForKey(finalURL, names)
		if !ok {
			return nil, fmt.Errorf("finalized reference %q does not match any slot name", finalURL)
		}
		if _, exists := references[name]; exists {
			return nil, fmt.Errorf("finalized references map slot %q more than once", name)
		}
		references[name] = finalURL
	}

	if len(references) != len(slots) {
		return nil, fmt.Errorf("finalize resolved %d of %d slots", len(references), len(slots))
	}

	return references, nil
}

// SlotNameForKey re-derives the logical slot name a storage key or reference
// URL belongs to. The gateway mints keys whose last "__" segment is the
// logical name (optionally followed by an extension or query string), so the
// match is on that suffix encoding, never on list position.
func SlotNameForKey(key string, names []string) (string, bool) {
	trimmed := key
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	for _, name := range names {
		marker := "__" + name
		idx := strings.LastIndex(trimmed, marker)
		if idx < 0 {
			continue
		}
		rest := trimmed[idx+len(marker):]
		if rest == "" || rest[0] == '.' {
			return name, true
		}
	}
	return "", false
}
