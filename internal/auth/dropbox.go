package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"golang.org/x/oauth2"
)

const (
	dropboxCredFile  = "dropbox_credentials.json"
	dropboxTokenFile = "dropbox_token.json"
)

type dropboxProvider struct{}

type dropboxCredentials struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

var dropboxEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.dropbox.com/oauth2/authorize",
	TokenURL: "https://api.dropboxapi.com/oauth2/token",
}

func loadDropboxConfig() (*oauth2.Config, error) {
	dir, err := sealwatchDir()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(filepath.Join(dir, dropboxCredFile))
	if err != nil {
		return nil, fmt.Errorf("dropbox_credentials.json not found in ~/.sealwatch: %w", err)
	}

	var creds dropboxCredentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse dropbox credentials: %w", err)
	}

	return &oauth2.Config{
		ClientID:     creds.AppKey,
		ClientSecret: creds.AppSecret,
		Endpoint:     dropboxEndpoint,
		RedirectURL:  "http://localhost:9999/callback",
		Scopes:       []string{"account_info.read", "files.content.read", "files.content.write"},
	}, nil
}

func (p *dropboxProvider) Authorize() error {
	cfg, err := loadDropboxConfig()
	if err != nil {
		return err
	}

	authURL := cfg.AuthCodeURL("state-token",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("token_access_type", "offline"))

	fmt.Println("Visit the URL for the auth dialog:")
	fmt.Println()
	fmt.Println(authURL)
	fmt.Println()

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":9999", Handler: mux}

	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		codeCh <- code
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprintln(w, "<h2>Authentication complete! Now you can close this window and return to the terminal.</h2>")
	})

	go func() { _ = srv.ListenAndServe() }()

	fmt.Println("Authentication will complete after you log on via browser...")

	select {
	case code := <-codeCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)

		token, err := cfg.Exchange(context.Background(), code)
		if err != nil {
			return fmt.Errorf("failed to exchange token: %w", err)
		}

		return saveDropboxToken(token)

	case <-time.After(2 * time.Minute):
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("authorization timed out")
	}
}

func saveDropboxToken(token *oauth2.Token) error {
	dir, err := sealwatchDir()
	if err != nil {
		return err
	}

	b, err := json.Marshal(token)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, dropboxTokenFile)
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Printf("Dropbox token saved to %s\n", path)
	return nil
}

func loadDropboxToken() (*oauth2.Token, error) {
	dir, err := sealwatchDir()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(filepath.Join(dir, dropboxTokenFile))
	if err != nil {
		return nil, fmt.Errorf("dropbox auth needed. Please run 'sealwatch auth dropbox' first: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(b, &token); err != nil {
		return nil, fmt.Errorf("failed to parse dropbox token: %w", err)
	}

	return &token, nil
}

// DropboxTokenExists reports whether a token from a previous auth flow is on
// disk. Config validation accepts a stored token in place of an explicit one.
func DropboxTokenExists() bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}

	_, err = os.Stat(filepath.Join(home, ".sealwatch", dropboxTokenFile))
	return err == nil
}

// NewConfig builds an SDK client config. An explicit access token takes
// precedence; otherwise the stored token is loaded and refreshed.
func (p *dropboxProvider) NewConfig(accessToken string) (dropbox.Config, error) {
	if accessToken != "" {
		return dropbox.Config{Token: accessToken}, nil
	}

	cfg, err := loadDropboxConfig()
	if err != nil {
		return dropbox.Config{}, err
	}

	token, err := loadDropboxToken()
	if err != nil {
		return dropbox.Config{}, err
	}

	tokenSource := cfg.TokenSource(context.Background(), token)
	newToken, err := tokenSource.Token()
	if err != nil {
		return dropbox.Config{}, fmt.Errorf("failed to refresh dropbox token: %w", err)
	}

	if newToken.AccessToken != token.AccessToken {
		_ = saveDropboxToken(newToken)
	}

	return dropbox.Config{Token: newToken.AccessToken}, nil
}
