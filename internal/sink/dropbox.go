package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"go.uber.org/zap"

	"sealwatch/internal/auth"
	"sealwatch/internal/logger"
)

const (
	// Dropbox caps single-request uploads at 150 MB; anything larger goes
	// through an upload session.
	dropboxSingleUploadLimit = 150 << 20
	dropboxChunkSize         = 4 << 20
)

// Dropbox stores sealed artifacts under a Dropbox folder. Uploads use
// add-with-autorename so an existing object is never overwritten. The SDK
// client is safe for concurrent calls.
type Dropbox struct {
	folderPath  string
	accessToken string
	client      files.Client
}

func NewDropbox(folderPath, accessToken string) *Dropbox {
	return &Dropbox{
		folderPath:  normalizePath(folderPath),
		accessToken: accessToken,
	}
}

func (s *Dropbox) Name() string {
	return "dropbox:" + s.folderPath
}

func (s *Dropbox) Remote() bool {
	return true
}

func (s *Dropbox) Connect(_ context.Context) error {
	cfg, err := auth.Dropbox.NewConfig(s.accessToken)
	if err != nil {
		return err
	}
	s.client = files.New(cfg)

	account, err := users.New(cfg).GetCurrentAccount()
	if err != nil {
		return fmt.Errorf("dropbox authentication check failed: %w", err)
	}

	if err := s.ensureFolder(s.folderPath); err != nil {
		return fmt.Errorf("failed to prepare dropbox folder: %w", err)
	}

	logger.Log.Info("dropbox sink ready",
		zap.String("account", account.Email),
		zap.String("folder", s.folderPath))

	return nil
}

func (s *Dropbox) Store(_ context.Context, name string, data []byte) (string, error) {
	path := s.folderPath + "/" + name
	if s.folderPath == "/" {
		path = "/" + name
	}

	var (
		meta *files.FileMetadata
		err  error
	)

	if len(data) <= dropboxSingleUploadLimit {
		meta, err = s.uploadSingle(path, data)
	} else {
		logger.Log.Info("large payload, using chunked upload session",
			zap.String("name", name),
			zap.Int("size", len(data)))
		meta, err = s.uploadChunked(path, data)
	}

	if err != nil {
		return "", fmt.Errorf("failed to upload to dropbox: %w", err)
	}

	return "dropbox:" + meta.PathDisplay, nil
}

func (s *Dropbox) uploadSingle(path string, data []byte) (*files.FileMetadata, error) {
	arg := files.NewUploadArg(path)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: "add"}}
	arg.Autorename = true

	return s.client.Upload(arg, bytes.NewReader(data))
}

func (s *Dropbox) uploadChunked(path string, data []byte) (*files.FileMetadata, error) {
	total := uint64(len(data))

	startArg := files.NewUploadSessionStartArg()
	start, err := s.client.UploadSessionStart(startArg, bytes.NewReader(data[:dropboxChunkSize]))
	if err != nil {
		return nil, fmt.Errorf("failed to start upload session: %w", err)
	}

	offset := uint64(dropboxChunkSize)
	for total-offset > dropboxChunkSize {
		cursor := files.NewUploadSessionCursor(start.SessionId, offset)
		appendArg := files.NewUploadSessionAppendArg(cursor)

		chunk := data[offset : offset+dropboxChunkSize]
		if err := s.client.UploadSessionAppendV2(appendArg, bytes.NewReader(chunk)); err != nil {
			return nil, fmt.Errorf("failed to append upload chunk at %d: %w", offset, err)
		}

		offset += dropboxChunkSize
	}

	commit := files.NewCommitInfo(path)
	commit.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: "add"}}
	commit.Autorename = true

	cursor := files.NewUploadSessionCursor(start.SessionId, offset)
	finishArg := files.NewUploadSessionFinishArg(cursor, commit)

	meta, err := s.client.UploadSessionFinish(finishArg, bytes.NewReader(data[offset:]))
	if err != nil {
		return nil, fmt.Errorf("failed to finish upload session: %w", err)
	}

	return meta, nil
}

func (s *Dropbox) ensureFolder(path string) error {
	if path == "/" {
		return nil
	}

	arg := files.NewCreateFolderArg(path)
	arg.Autorename = false

	if _, err := s.client.CreateFolderV2(arg); err != nil {
		if isConflict(err) {
			return nil
		}

		return err
	}

	return nil
}

func normalizePath(p string) string {
	return "/" + strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
}

func isConflict(err error) bool {
	var apiErr files.CreateFolderV2APIError
	if errors.As(err, &apiErr) {
		return apiErr.EndpointError != nil &&
			apiErr.EndpointError.Path != nil &&
			apiErr.EndpointError.Path.Tag == "conflict"
	}

	return false
}
