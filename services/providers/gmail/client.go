package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/ricardag/mailmirror/config"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/tracing"
)

// GmailClient mirrors a Gmail mailbox through the Gmail REST API. Labels are
// projected as folders, nesting derived from "/" in the label name.
type GmailClient struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	maxRetries int
	log        logger.Logger
}

func NewGmailClient(cfg *config.GmailConfig, syncCfg *config.SyncConfig, httpClient *http.Client, log logger.Logger) *GmailClient {
	return &GmailClient{
		httpClient: httpClient,
		baseURL:    cfg.APIBaseURL,
		pageSize:   syncCfg.MessagePageSize,
		maxRetries: syncCfg.MaxPageRetries,
		log:        log,
	}
}

func (c *GmailClient) Provider() enum.AccountProvider {
	return enum.ProviderGmail
}

// ListFolders returns the top-level labels. The labels endpoint is not
// paginated, so the page token is ignored and NextLink is always empty.
func (c *GmailClient) ListFolders(ctx context.Context, pageToken string) (*interfaces.FolderPage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailClient.ListFolders")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderGmail))

	labels, err := c.listLabels(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return labelsToFolderPage(labels, ""), nil
}

func (c *GmailClient) ListChildFolders(ctx context.Context, folderID, pageToken string) (*interfaces.FolderPage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailClient.ListChildFolders")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderGmail))
	tracing.TagFolder(span, folderID)

	labels, err := c.listLabels(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	parentName := ""
	for _, label := range labels {
		if label.ID == folderID {
			parentName = label.Name
			break
		}
	}
	if parentName == "" {
		return &interfaces.FolderPage{}, nil
	}

	return labelsToFolderPage(labels, parentName), nil
}

func (c *GmailClient) ListMessages(ctx context.Context, opts interfaces.MessagePageOptions) (*interfaces.MessagePage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailClient.ListMessages")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderGmail))

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = c.pageSize
	}

	query := url.Values{
		"maxResults": {fmt.Sprintf("%d", pageSize)},
	}
	if opts.FolderID != "" {
		query.Set("labelIds", opts.FolderID)
	}
	if opts.PageToken != "" {
		query.Set("pageToken", opts.PageToken)
	}

	var list messageListResponse
	listURL := fmt.Sprintf("%s/users/me/messages?%s", c.baseURL, query.Encode())
	if err := c.getJSON(ctx, listURL, &list); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	page := &interfaces.MessagePage{
		NextLink: list.NextPageToken,
	}
	for _, ref := range list.Messages {
		remote, err := c.fetchMessage(ctx, ref.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		page.Messages = append(page.Messages, *remote)
	}
	return page, nil
}

func (c *GmailClient) fetchRawMessage(ctx context.Context, id string) (*rawMessageResponse, error) {
	var raw rawMessageResponse
	messageURL := fmt.Sprintf("%s/users/me/messages/%s?format=raw", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, messageURL, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func (c *GmailClient) fetchMessage(ctx context.Context, id string) (*interfaces.RemoteMessage, error) {
	raw, err := c.fetchRawMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	return raw.toRemoteMessage()
}

// FetchAttachment serves the part content out of the raw MIME payload. The
// raw format carries no API attachment ids, so the attachments endpoint
// cannot resolve the part ids assigned at listing time.
func (c *GmailClient) FetchAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailClient.FetchAttachment")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderGmail))

	raw, err := c.fetchRawMessage(ctx, messageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}

	content, contentType, err := raw.attachmentByID(attachmentID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}
	return content, contentType, nil
}

func (c *GmailClient) listLabels(ctx context.Context) ([]label, error) {
	var list labelListResponse
	labelsURL := fmt.Sprintf("%s/users/me/labels", c.baseURL)
	if err := c.getJSON(ctx, labelsURL, &list); err != nil {
		return nil, err
	}

	// Counts are only returned by labels.get
	labels := make([]label, 0, len(list.Labels))
	for _, l := range list.Labels {
		var detailed label
		labelURL := fmt.Sprintf("%s/users/me/labels/%s", c.baseURL, url.PathEscape(l.ID))
		if err := c.getJSON(ctx, labelURL, &detailed); err != nil {
			return nil, err
		}
		labels = append(labels, detailed)
	}
	return labels, nil
}

func labelsToFolderPage(labels []label, parentName string) *interfaces.FolderPage {
	byName := make(map[string]label, len(labels))
	for _, l := range labels {
		byName[l.Name] = l
	}

	page := &interfaces.FolderPage{}
	for _, l := range labels {
		name := l.Name
		prefix := ""
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			prefix = name[:idx]
			name = name[idx+1:]
		}
		if prefix != parentName {
			continue
		}

		parentID := ""
		if parent, ok := byName[prefix]; ok {
			parentID = parent.ID
		}

		childCount := 0
		for _, other := range labels {
			if strings.HasPrefix(other.Name, l.Name+"/") &&
				!strings.Contains(strings.TrimPrefix(other.Name, l.Name+"/"), "/") {
				childCount++
			}
		}

		page.Folders = append(page.Folders, interfaces.RemoteFolder{
			ID:               l.ID,
			DisplayName:      name,
			ParentFolderID:   parentID,
			ChildFolderCount: childCount,
			TotalItemCount:   l.MessagesTotal,
			UnreadItemCount:  l.MessagesUnread,
		})
	}
	return page
}

func (c *GmailClient) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	retry := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := retry.Duration()
			c.log.Warnf("gmail request failed, retrying in %v: %v", wait, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		body, retryable, err := c.doGet(ctx, requestURL)
		if err == nil {
			return json.Unmarshal(body, out)
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

func (c *GmailClient) doGet(ctx context.Context, requestURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, errors.Errorf("gmail request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, errors.Errorf("gmail request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, false, nil
}
