package publish

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"product-reel-pipeline/config"
)

// YouTube uploads the video via the Data API v3 with a refresh-token
// OAuth client
type YouTube struct {
	cfg *config.Config
}

// NewYouTube creates the YouTube target
func NewYouTube(cfg *config.Config) *YouTube {
	return &YouTube{cfg: cfg}
}

func (yt *YouTube) Name() string { return "youtube" }

// Upload pushes the video with its metadata and returns the assigned
// video id
func (yt *YouTube) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	client, err := yt.oauthClient(ctx)
	if err != nil {
		return "", fmt.Errorf("youtube auth: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("youtube service: %w", err)
	}

	ytCfg := yt.cfg.Publish.YouTube
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Hashtags,
			CategoryId:           ytCfg.CategoryID,
			DefaultLanguage:      ytCfg.DefaultLanguage,
			DefaultAudioLanguage: ytCfg.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           ytCfg.Visibility,
			SelfDeclaredMadeForKids: ytCfg.MadeForKids,
		},
	}

	f, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Printf("[publish] youtube: file size %.1f MB", float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.NotifySubscribers(ytCfg.NotifySubscribers)
	call.Media(f)

	uploaded, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}
	return uploaded.Id, nil
}

// oauthClient builds an HTTP client from the configured refresh token
func (yt *YouTube) oauthClient(ctx context.Context) (*http.Client, error) {
	s := yt.cfg.Secrets
	if s.YouTubeClientID == "" || s.YouTubeClientSecret == "" || s.YouTubeRefreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     s.YouTubeClientID,
		ClientSecret: s.YouTubeClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}

	token := &oauth2.Token{
		RefreshToken: s.YouTubeRefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}
