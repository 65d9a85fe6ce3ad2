package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/degixdaw/filebrowser/frontend/internal/session"
	"github.com/degixdaw/filebrowser/shared/domain"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
)

// attachmentRow is one element of the catalog response. Rows that fail
// validation are dropped individually.
type attachmentRow struct {
	ID           string   `json:"id"`
	MessageID    string   `json:"message_id"`
	FileName     string   `json:"file_name" validate:"required"`
	FileType     *string  `json:"file_type"`
	FileSize     *float64 `json:"file_size"`
	FileURL      string   `json:"file_url" validate:"required"`
	ThumbnailURL *string  `json:"thumbnail_url"`
	CreatedAt    string   `json:"created_at"`
	Messages     *struct {
		SenderID string `json:"sender_id"`
	} `json:"messages"`
}

type listObjectsRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy sortBy `json:"sortBy"`
}

type sortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

type storageObject struct {
	Name string `json:"name"`
}

// ListFiles returns the newest attachments matching filter. Without a user token
// the anon key is used for this read. An empty catalog triggers one listing of
// the raw storage bucket instead.
func (c *APIClient) ListFiles(ctx context.Context, sess *session.Session, filter domain.FilterCategory) (files []domain.FileRecord, err error) {
	const op = "list_files"
	defer func() { observe(op, err) }()

	if !filter.Valid() {
		return nil, internal_errors.New(op, internal_errors.MalformedInput, internal_errors.StageOpen,
			fmt.Errorf("%w: %s", ErrUnknownFilter, filter))
	}

	var token, userID string
	if sess != nil {
		token, userID = sess.Token(), sess.UserID()
	}
	if filter == domain.FilterReceivedOnly && userID == "" {
		return nil, internal_errors.New(op, internal_errors.Authorization, internal_errors.StageOpen, ErrIdentityRequired)
	}

	bearer := token
	if bearer == "" {
		logger.Log.Warn("no user token, listing with the anon key",
			"component", "catalog",
			"filter", filter.String())
		bearer = c.AnonKey
	}

	q := BuildQuery(c.AttachmentsResource, c.AttachmentsJoin, filter)
	header := c.apiHeaders(bearer)
	header.Set("Prefer", "return=representation")

	resp, err := c.do(ctx, op, http.MethodGet, c.BaseURL+q.Path(), nil, header)
	if err != nil {
		return nil, err
	}
	data, err := readBody(op, resp)
	if err != nil {
		return nil, err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, internal_errors.New(op, internal_errors.Parse, internal_errors.StageParse,
			fmt.Errorf("failed to parse catalog JSON: %w", err))
	}

	if len(rows) == 0 {
		logger.Log.Info("catalog is empty, falling back to storage listing",
			"component", "catalog",
			"filter", filter.String())
		return c.listStorageObjects(ctx)
	}

	files = c.parseRows(rows)
	if filter == domain.FilterReceivedOnly {
		files = receivedBy(files, userID)
	}

	logger.Log.Info("catalog listed",
		"component", "catalog",
		"filter", filter.String(),
		"rows", len(rows),
		"files", len(files))
	return files, nil
}

func (c *APIClient) parseRows(rows []json.RawMessage) []domain.FileRecord {
	files := make([]domain.FileRecord, 0, len(rows))
	for i, raw := range rows {
		var row attachmentRow
		if err := json.Unmarshal(raw, &row); err != nil {
			logger.Log.Debug("skipping unreadable catalog row", "component", "catalog", "row", i, "error", err)
			continue
		}
		if err := c.validate.Struct(row); err != nil {
			logger.Log.Debug("skipping incomplete catalog row", "component", "catalog", "row", i, "error", err)
			continue
		}
		files = append(files, row.record())
	}
	return files
}

func (r attachmentRow) record() domain.FileRecord {
	rec := domain.FileRecord{
		ID:          r.ID,
		MessageID:   r.MessageID,
		FileName:    r.FileName,
		MimeType:    domain.UnknownMimeType,
		StoragePath: r.FileURL,
		CreatedAt:   r.CreatedAt,
	}
	if r.FileType != nil && *r.FileType != "" {
		rec.MimeType = *r.FileType
	}
	if r.FileSize != nil && *r.FileSize > 0 {
		rec.SizeBytes = int64(*r.FileSize)
	}
	if r.ThumbnailURL != nil {
		rec.ThumbnailPath = *r.ThumbnailURL
	}
	if r.Messages != nil {
		rec.SenderID = r.Messages.SenderID
	}
	return rec
}

// receivedBy keeps the files somebody other than userID sent.
func receivedBy(files []domain.FileRecord, userID string) []domain.FileRecord {
	out := files[:0]
	for _, f := range files {
		if f.SenderID != userID {
			out = append(out, f)
		}
	}
	return out
}

// listStorageObjects enumerates raw object names in the bucket. Always uses the
// anon key; the names are opaque and only shown so the list is not blank.
func (c *APIClient) listStorageObjects(ctx context.Context) ([]domain.FileRecord, error) {
	const op = "list_storage_objects"

	body, err := json.Marshal(listObjectsRequest{
		Prefix: "",
		Limit:  pageSize,
		Offset: 0,
		SortBy: sortBy{Column: "name", Order: "asc"},
	})
	if err != nil {
		return nil, internal_errors.New(op, internal_errors.Transport, internal_errors.StageOpen, err)
	}

	header := c.apiHeaders(c.AnonKey)
	header.Set("Content-Type", "application/json")

	url := c.BaseURL + c.StoragePrefix + "/object/list/" + c.Bucket
	resp, err := c.do(ctx, op, http.MethodPost, url, bytes.NewReader(body), header)
	if err != nil {
		return nil, err
	}
	data, err := readBody(op, resp)
	if err != nil {
		return nil, err
	}

	var objects []storageObject
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, internal_errors.New(op, internal_errors.Parse, internal_errors.StageParse,
			fmt.Errorf("failed to parse storage listing JSON: %w", err))
	}

	files := make([]domain.FileRecord, 0, len(objects))
	for _, obj := range objects {
		if obj.Name == "" {
			continue
		}
		files = append(files, domain.FileRecord{FileName: obj.Name, MimeType: domain.UnknownMimeType, StoragePath: obj.Name})
	}

	logger.Log.Info("storage objects listed",
		"component", "catalog",
		"objects", len(objects),
		"files", len(files))
	return files, nil
}
