package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"product-reel-pipeline/config"
	"product-reel-pipeline/poll"
)

// Instagram publishes Reels via the Graph API: create a media container
// referencing the video's public URL, wait for remote processing to
// finish, then publish the container.
type Instagram struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewInstagram creates the Instagram target
func NewInstagram(cfg *config.Config) *Instagram {
	return &Instagram{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (ig *Instagram) Name() string { return "instagram" }

// Upload runs the three-step Reels protocol. Each step's failure aborts
// only this target's attempt.
func (ig *Instagram) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	containerID, err := ig.createContainer(ctx, videoPath, meta)
	if err != nil {
		return "", fmt.Errorf("create media container: %w", err)
	}

	res := poll.UntilDone(ctx, "instagram container "+containerID,
		ig.containerStatus(containerID),
		time.Duration(ig.cfg.Poll.MaxWaitSec)*time.Second,
		time.Duration(ig.cfg.Poll.IntervalSec)*time.Second,
	)
	switch res.State {
	case poll.Failed:
		return "", fmt.Errorf("container processing failed: %s", res.Payload)
	case poll.TimedOut:
		return "", fmt.Errorf("container processing timed out")
	}

	mediaID, err := ig.publishContainer(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("publish media: %w", err)
	}
	return mediaID, nil
}

type graphResp struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (ig *Instagram) createContainer(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	form := url.Values{}
	form.Set("video_url", ig.publicURL(videoPath))
	form.Set("media_type", "REELS")
	form.Set("caption", buildCaption(meta))
	form.Set("access_token", ig.cfg.Secrets.InstagramAccessToken)

	endpoint := fmt.Sprintf("%s/%s/media", ig.cfg.Publish.Instagram.GraphBaseURL, ig.cfg.Secrets.InstagramUserID)
	resp, err := ig.postForm(ctx, endpoint, form)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("graph API returned no container id")
	}
	return resp.ID, nil
}

// containerStatus builds the poller check for one container
func (ig *Instagram) containerStatus(containerID string) poll.CheckFunc {
	return func(ctx context.Context) (poll.Status, string, error) {
		endpoint := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s",
			ig.cfg.Publish.Instagram.GraphBaseURL, containerID,
			url.QueryEscape(ig.cfg.Secrets.InstagramAccessToken))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return poll.StatusPending, "", err
		}
		httpResp, err := ig.httpClient.Do(req)
		if err != nil {
			return poll.StatusPending, "", err
		}
		defer httpResp.Body.Close()

		var resp graphResp
		if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
			return poll.StatusPending, "", err
		}
		if resp.Error != nil {
			return poll.StatusFailed, resp.Error.Message, nil
		}

		switch resp.StatusCode {
		case "FINISHED":
			return poll.StatusFinished, containerID, nil
		case "ERROR":
			return poll.StatusFailed, "container status ERROR", nil
		default:
			return poll.StatusPending, "", nil
		}
	}
}

func (ig *Instagram) publishContainer(ctx context.Context, containerID string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", ig.cfg.Secrets.InstagramAccessToken)

	endpoint := fmt.Sprintf("%s/%s/media_publish", ig.cfg.Publish.Instagram.GraphBaseURL, ig.cfg.Secrets.InstagramUserID)
	resp, err := ig.postForm(ctx, endpoint, form)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("graph API returned no media id")
	}
	return resp.ID, nil
}

func (ig *Instagram) postForm(ctx context.Context, endpoint string, form url.Values) (*graphResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := ig.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp graphResp
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode graph response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("graph API error: %s", resp.Error.Message)
	}
	return &resp, nil
}

// publicURL maps the local video file to the URL the Graph API can
// fetch it from. Serving the file at that URL is an ops concern outside
// this pipeline.
func (ig *Instagram) publicURL(videoPath string) string {
	base := strings.TrimSuffix(ig.cfg.Publish.Instagram.PublicBaseURL, "/")
	return base + "/" + filepath.Base(videoPath)
}

// buildCaption joins the description with hashtag lines, matching the
// Reels caption convention
func buildCaption(meta Metadata) string {
	caption := meta.Description
	if len(meta.Hashtags) > 0 {
		tags := make([]string, 0, len(meta.Hashtags))
		for _, t := range meta.Hashtags {
			tags = append(tags, "#"+strings.TrimPrefix(t, "#"))
		}
		caption += "\n\n" + strings.Join(tags, " ")
	}
	return caption
}
