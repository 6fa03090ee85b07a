package outlook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
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

const (
	// folderSelect keeps the folder payload down to the mirrored fields.
	folderSelect = "id,displayName,parentFolderId,childFolderCount,totalItemCount,unreadItemCount"

	messageSelect = "id,internetMessageId,conversationId,changeKey,subject,bodyPreview,body," +
		"from,sender,toRecipients,ccRecipients,bccRecipients,replyTo," +
		"receivedDateTime,sentDateTime,createdDateTime,lastModifiedDateTime," +
		"isRead,isDraft,hasAttachments,importance,flag," +
		"isDeliveryReceiptRequested,isReadReceiptRequested,categories," +
		"inferenceClassification,parentFolderId,webLink,internetMessageHeaders"
)

// OutlookClient talks to the Microsoft Graph mail endpoints through an
// OAuth-authenticated http client.
type OutlookClient struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	maxRetries int
	log        logger.Logger
}

func NewOutlookClient(cfg *config.OutlookConfig, syncCfg *config.SyncConfig, httpClient *http.Client, log logger.Logger) *OutlookClient {
	return &OutlookClient{
		httpClient: httpClient,
		baseURL:    cfg.GraphURL,
		pageSize:   syncCfg.FolderPageSize,
		maxRetries: syncCfg.MaxPageRetries,
		log:        log,
	}
}

func (c *OutlookClient) Provider() enum.AccountProvider {
	return enum.ProviderOutlook
}

func (c *OutlookClient) ListFolders(ctx context.Context, pageToken string) (*interfaces.FolderPage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutlookClient.ListFolders")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderOutlook))

	requestURL := pageToken
	if requestURL == "" {
		requestURL = fmt.Sprintf("%s/me/mailFolders?%s", c.baseURL, url.Values{
			"$select": {folderSelect},
			"$top":    {fmt.Sprintf("%d", c.pageSize)},
		}.Encode())
	}

	var list graphFolderList
	if err := c.getJSON(ctx, requestURL, &list); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return list.toFolderPage(), nil
}

func (c *OutlookClient) ListChildFolders(ctx context.Context, folderID, pageToken string) (*interfaces.FolderPage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutlookClient.ListChildFolders")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderOutlook))
	tracing.TagFolder(span, folderID)

	requestURL := pageToken
	if requestURL == "" {
		requestURL = fmt.Sprintf("%s/me/mailFolders/%s/childFolders?%s", c.baseURL, url.PathEscape(folderID), url.Values{
			"$select": {folderSelect},
			"$top":    {fmt.Sprintf("%d", c.pageSize)},
		}.Encode())
	}

	var list graphFolderList
	if err := c.getJSON(ctx, requestURL, &list); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return list.toFolderPage(), nil
}

func (c *OutlookClient) ListMessages(ctx context.Context, opts interfaces.MessagePageOptions) (*interfaces.MessagePage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutlookClient.ListMessages")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderOutlook))

	requestURL := opts.PageToken
	if requestURL == "" {
		pageSize := opts.PageSize
		if pageSize <= 0 {
			pageSize = c.pageSize
		}
		query := url.Values{
			"$select":  {messageSelect},
			"$expand":  {"attachments($select=id,name,contentType,size,isInline)"},
			"$orderby": {"receivedDateTime DESC"},
			"$top":     {fmt.Sprintf("%d", pageSize)},
		}
		if opts.FolderID != "" {
			requestURL = fmt.Sprintf("%s/me/mailFolders/%s/messages?%s", c.baseURL, url.PathEscape(opts.FolderID), query.Encode())
		} else {
			requestURL = fmt.Sprintf("%s/me/messages?%s", c.baseURL, query.Encode())
		}
	}

	var list graphMessageList
	if err := c.getJSON(ctx, requestURL, &list); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	page := &interfaces.MessagePage{
		NextLink: list.NextLink,
	}
	for i := range list.Value {
		page.Messages = append(page.Messages, list.Value[i].toRemoteMessage())
	}
	return page, nil
}

func (c *OutlookClient) FetchAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OutlookClient.FetchAttachment")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderOutlook))

	requestURL := fmt.Sprintf("%s/me/messages/%s/attachments/%s", c.baseURL, url.PathEscape(messageID), url.PathEscape(attachmentID))

	var attachment graphAttachment
	if err := c.getJSON(ctx, requestURL, &attachment); err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}

	content, err := attachment.decodeContent()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}
	return content, attachment.ContentType, nil
}

// getJSON fetches a Graph URL into out, retrying transient failures with
// exponential backoff.
func (c *OutlookClient) getJSON(ctx context.Context, requestURL string, out interface{}) error {
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
			c.log.Warnf("graph request failed, retrying in %v: %v", wait, lastErr)
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

func (c *OutlookClient) doGet(ctx context.Context, requestURL string) ([]byte, bool, error) {
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
		return nil, true, errors.Errorf("graph request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, errors.Errorf("graph request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, false, nil
}
