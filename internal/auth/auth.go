package auth

import (
	"context"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"google.golang.org/api/drive/v3"
)

type Provider interface {
	Authorize() error
}

type GDriveProvider interface {
	Provider
	NewService(ctx context.Context, credFile string) (*drive.Service, error)
}

type DropboxProvider interface {
	Provider
	NewConfig(accessToken string) (dropbox.Config, error)
}

var (
	GDrive  GDriveProvider  = &gdriveProvider{}
	Dropbox DropboxProvider = &dropboxProvider{}
)
