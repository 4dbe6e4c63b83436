package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/chronica/backend/internal/apperr"
	"github.com/chronica/backend/pkg/logger"
)

// Slot names the two media attachments an event may carry.
type Slot string

const (
	SlotOriginal Slot = "original"
	SlotCropped  Slot = "cropped"
)

// Audio is only accepted for the original upload; there is no cropped
// form of an audio clip.
var slotExtensions = map[Slot]map[string]bool{
	SlotOriginal: {"png": true, "jpeg": true, "jpg": true, "ogg": true, "mp3": true},
	SlotCropped:  {"png": true, "jpeg": true, "jpg": true},
}

// ObjectStore is the object-store contract the reconciliation engine
// needs. *storage.MinIOClient satisfies it in production.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, objectName string) error
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)
}

type DecodedMedia struct {
	ContentType string
	Extension   string
	Data        []byte
}

// DecodeDataURI parses a `data:<mime>;base64,<payload>` string and
// validates the extension against the slot's allow-list. The extension
// is the MIME subtype token before the first semicolon.
func DecodeDataURI(raw string, slot Slot) (*DecodedMedia, error) {
	if !strings.HasPrefix(raw, "data:") || !strings.Contains(raw, ";base64,") {
		return nil, apperr.Newf(apperr.KindMalformedDataURI, "invalid %s file format: expected base64-encoded data", slot)
	}

	meta, payload, _ := strings.Cut(raw, ",")
	if !strings.Contains(meta, "/") || !strings.Contains(meta, ";") {
		return nil, apperr.Newf(apperr.KindMalformedDataURI, "invalid %s MIME type format", slot)
	}

	mimeType := strings.TrimPrefix(meta, "data:")
	contentType, _, _ := strings.Cut(mimeType, ";")

	_, subtype, _ := strings.Cut(mimeType, "/")
	extension, _, _ := strings.Cut(subtype, ";")
	if !slotExtensions[slot][extension] {
		return nil, apperr.Newf(apperr.KindUnsupportedExtension, "unsupported %s file type: %s", slot, extension)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedDataURI, fmt.Sprintf("invalid %s base64 payload", slot), err)
	}

	return &DecodedMedia{
		ContentType: contentType,
		Extension:   extension,
		Data:        data,
	}, nil
}

// ObjectKey derives the storage key for a slot. The key is a pure
// function of (slot, eventID, extension), which lets the reconciler
// detect an extension change without consulting the store.
func ObjectKey(slot Slot, eventID, extension string) string {
	return fmt.Sprintf("events/%s/%s.%s", slot, eventID, extension)
}

func keyPrefix(slot Slot, eventID string) string {
	return fmt.Sprintf("events/%s/%s.", slot, eventID)
}

type MediaService struct {
	Store ObjectStore
}

func NewMediaService(store ObjectStore) *MediaService {
	return &MediaService{Store: store}
}

// ReconcileResult carries the key the event record should persist and
// any superseded keys that must only be purged after the record write
// succeeds.
type ReconcileResult struct {
	Key   string
	Stale []string
}

// Reconcile decides the fate of one media slot on create or update.
//
// No payload keeps oldKey untouched: skipping the upload on an update
// never deletes existing media. A payload is decoded, written at its
// derived key first, and only then are stray prefix siblings collected.
// The write-before-delete ordering means a failed upload leaves the old
// object and record intact, and a later failed record write can still
// fall back on oldKey — which is why oldKey is returned as Stale for
// post-persist purging instead of being deleted here.
//
// Sibling garbage collection is advisory: listing or deletion failures
// are logged and swallowed, since the event record is the authoritative
// state and an orphaned object is preferable to a blocked update.
func (s *MediaService) Reconcile(ctx context.Context, eventID string, slot Slot, oldKey, payload string) (ReconcileResult, error) {
	if payload == "" {
		return ReconcileResult{Key: oldKey}, nil
	}

	decoded, err := DecodeDataURI(payload, slot)
	if err != nil {
		return ReconcileResult{}, err
	}

	newKey := ObjectKey(slot, eventID, decoded.Extension)
	err = s.Store.Upload(ctx, newKey, bytes.NewReader(decoded.Data), int64(len(decoded.Data)), decoded.ContentType)
	if err != nil {
		return ReconcileResult{}, apperr.Wrap(apperr.KindStoreUnavailable, fmt.Sprintf("failed uploading %s media", slot), err)
	}

	s.collectSiblings(ctx, eventID, slot, oldKey, newKey)

	result := ReconcileResult{Key: newKey}
	if oldKey != "" && oldKey != newKey {
		result.Stale = append(result.Stale, oldKey)
	}
	return result, nil
}

// collectSiblings removes leftover objects under the slot prefix that
// are neither the current nor the previous key, e.g. debris from an
// earlier crash between upload and cleanup.
func (s *MediaService) collectSiblings(ctx context.Context, eventID string, slot Slot, oldKey, newKey string) {
	keys, err := s.Store.ListByPrefix(ctx, keyPrefix(slot, eventID))
	if err != nil {
		logger.Warn("media_gc_list_failed", map[string]interface{}{
			"event_id": eventID,
			"slot":     slot,
			"error":    err.Error(),
		})
		return
	}

	for _, key := range keys {
		if key == newKey || key == oldKey {
			continue
		}
		if err := s.Store.Delete(ctx, key); err != nil {
			logger.Warn("media_gc_delete_failed", map[string]interface{}{
				"event_id": eventID,
				"slot":     slot,
				"key":      key,
				"error":    err.Error(),
			})
		}
	}
}

// Purge deletes keys that are no longer referenced by any event record.
// Failures are logged and swallowed.
func (s *MediaService) Purge(ctx context.Context, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.Store.Delete(ctx, key); err != nil {
			logger.Warn("media_purge_failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

// DeleteAll removes an event's media on full deletion, reporting which
// keys went and which did not. The caller proceeds with the record
// deletion either way.
func (s *MediaService) DeleteAll(ctx context.Context, keys []string) (deleted, failed []string) {
	deleted = []string{}
	failed = []string{}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.Store.Delete(ctx, key); err != nil {
			logger.Warn("media_delete_failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			failed = append(failed, key)
			continue
		}
		deleted = append(deleted, key)
	}
	return deleted, failed
}
