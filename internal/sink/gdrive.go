package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"sealwatch/internal/auth"
	"sealwatch/internal/logger"
)

// Drive payloads above one chunk go through the client's resumable upload
// path instead of a single request.
const gdriveChunkSize = 8 << 20

// GDrive stores sealed artifacts in a Google Drive folder. Each Store creates
// a distinct object, so names never collide destructively. The drive client
// is safe for concurrent calls.
type GDrive struct {
	folderPath string
	credFile   string
	svc        *drive.Service
	rootID     string
}

func NewGDrive(folderPath, credFile string) *GDrive {
	return &GDrive{
		folderPath: strings.Trim(folderPath, "/"),
		credFile:   credFile,
	}
}

func (s *GDrive) Name() string {
	return "gdrive:/" + s.folderPath
}

func (s *GDrive) Remote() bool {
	return true
}

func (s *GDrive) Connect(ctx context.Context) error {
	svc, err := auth.GDrive.NewService(ctx, s.credFile)
	if err != nil {
		return err
	}
	s.svc = svc

	about, err := svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gdrive authentication check failed: %w", err)
	}

	rootID, err := s.ensureFolderPath(ctx, s.folderPath)
	if err != nil {
		return fmt.Errorf("failed to prepare gdrive folder: %w", err)
	}
	s.rootID = rootID

	logger.Log.Info("gdrive sink ready",
		zap.String("user", about.User.EmailAddress),
		zap.String("folder", "/"+s.folderPath),
		zap.String("folder_id", rootID))

	return nil
}

func (s *GDrive) Store(ctx context.Context, name string, data []byte) (string, error) {
	driveFile := &drive.File{
		Name:    name,
		Parents: []string{s.rootID},
	}

	created, err := s.svc.Files.Create(driveFile).
		Media(bytes.NewReader(data),
			googleapi.ContentType("application/octet-stream"),
			googleapi.ChunkSize(gdriveChunkSize)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload to gdrive: %w", err)
	}

	return "gdrive:/" + s.folderPath + "/" + name + " (id " + created.Id + ")", nil
}

func (s *GDrive) ensureFolderPath(ctx context.Context, folderPath string) (string, error) {
	parts := splitPath(folderPath)
	if len(parts) == 0 {
		return "root", nil
	}

	parentID := "root"
	for _, part := range parts {
		id, err := s.findFolder(ctx, part, parentID)
		if err != nil {
			return "", err
		}

		if id == "" {
			id, err = s.createFolder(ctx, part, parentID)
			if err != nil {
				return "", err
			}
		}

		parentID = id
	}

	return parentID, nil
}

func (s *GDrive) findFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='application/vnd.google-apps.folder' and trashed=false", escapeName(name), parentID)

	list, err := s.svc.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", nil
	}

	return list.Files[0].Id, nil
}

func (s *GDrive) createFolder(ctx context.Context, name, parentID string) (string, error) {
	f := &drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
		Parents:  []string{parentID},
	}

	created, err := s.svc.Files.Create(f).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}

	return created.Id, nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}

	return strings.Split(p, "/")
}

func escapeName(name string) string {
	return strings.ReplaceAll(name, "'", "\\'")
}
