package imapcli

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/tracing"
)

// Credentials holds the connection settings of one IMAP account. They are
// cached on disk next to the OAuth tokens of the other providers.
type Credentials struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	TLS      bool   `json:"tls"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// IMAPClient projects a plain IMAP mailbox onto the provider-neutral mail
// client surface. Mailboxes are folders, nesting derived from the server's
// hierarchy delimiter.
type IMAPClient struct {
	creds       Credentials
	log         logger.Logger
	clientMutex sync.Mutex
	client      *client.Client
}

var _ interfaces.CheckpointedMailClient = (*IMAPClient)(nil)

func NewIMAPClient(creds Credentials, log logger.Logger) *IMAPClient {
	return &IMAPClient{
		creds: creds,
		log:   log,
	}
}

func (c *IMAPClient) Provider() enum.AccountProvider {
	return enum.ProviderIMAP
}

func (c *IMAPClient) connect(ctx context.Context) (*client.Client, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "IMAPClient.connect")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	span.SetTag("server", c.creds.Server)
	span.SetTag("port", c.creds.Port)
	span.SetTag("tls", c.creds.TLS)

	c.clientMutex.Lock()
	defer c.clientMutex.Unlock()

	if c.client != nil {
		if err := c.client.Noop(); err == nil {
			return c.client, nil
		}
		c.client = nil
	}

	serverAddr := fmt.Sprintf("%s:%d", c.creds.Server, c.creds.Port)

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	var imapClient *client.Client
	var err error
	if c.creds.TLS {
		imapClient, err = client.DialWithDialerTLS(dialer, serverAddr, &tls.Config{
			ServerName: c.creds.Server,
		})
	} else {
		imapClient, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}

	imapClient.Timeout = 30 * time.Second
	if err := imapClient.Login(c.creds.Username, c.creds.Password); err != nil {
		imapClient.Logout()
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to login as %s: %w", c.creds.Username, err)
	}
	imapClient.Timeout = 0

	c.client = imapClient
	return imapClient, nil
}

// Close logs out of the server. Safe to call on a never-connected client.
func (c *IMAPClient) Close() {
	c.clientMutex.Lock()
	defer c.clientMutex.Unlock()

	if c.client == nil {
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- c.client.Logout()
	}()

	select {
	case err := <-done:
		if err != nil {
			c.log.Warnf("error during imap logout: %v", err)
		}
	case <-time.After(5 * time.Second):
		c.log.Warnf("imap logout timed out")
	}
	c.client = nil
}

func (c *IMAPClient) ListFolders(ctx context.Context, pageToken string) (*interfaces.FolderPage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPClient.ListFolders")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderIMAP))

	return c.listFolderLevel(ctx, "")
}

func (c *IMAPClient) ListChildFolders(ctx context.Context, folderID, pageToken string) (*interfaces.FolderPage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPClient.ListChildFolders")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderIMAP))
	tracing.TagFolder(span, folderID)

	return c.listFolderLevel(ctx, folderID)
}

// listFolderLevel lists mailboxes one hierarchy level below parent. An empty
// parent lists the top level. Mailbox listings are not paginated by the
// protocol, so NextLink stays empty.
func (c *IMAPClient) listFolderLevel(ctx context.Context, parent string) (*interfaces.FolderPage, error) {
	imapClient, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	reference := ""
	pattern := "%"
	if parent != "" {
		reference = parent
		pattern = "*"
	}

	mailboxes := make(chan *imap.MailboxInfo, 64)
	listDone := make(chan error, 1)
	go func() {
		listDone <- imapClient.List(reference, pattern, mailboxes)
	}()

	var infos []*imap.MailboxInfo
	for mailbox := range mailboxes {
		infos = append(infos, mailbox)
	}
	if err := <-listDone; err != nil {
		return nil, errors.Wrap(err, "failed to list mailboxes")
	}

	page := &interfaces.FolderPage{}
	for _, info := range infos {
		if parent != "" && !isDirectChild(info.Name, parent, info.Delimiter) {
			continue
		}

		displayName := info.Name
		if info.Delimiter != "" {
			if idx := strings.LastIndex(info.Name, info.Delimiter); idx >= 0 {
				displayName = info.Name[idx+len(info.Delimiter):]
			}
		}

		folder := interfaces.RemoteFolder{
			ID:             info.Name,
			DisplayName:    displayName,
			ParentFolderID: parent,
		}

		if hasAttr(info.Attributes, imap.HasChildrenAttr) {
			folder.ChildFolderCount = 1
		}

		if !hasAttr(info.Attributes, imap.NoSelectAttr) {
			status, err := imapClient.Status(info.Name, []imap.StatusItem{imap.StatusMessages, imap.StatusUnseen})
			if err != nil {
				return nil, errors.Wrapf(err, "failed to get status for %s", info.Name)
			}
			folder.TotalItemCount = int(status.Messages)
			folder.UnreadItemCount = int(status.Unseen)
		}

		page.Folders = append(page.Folders, folder)
	}
	return page, nil
}

func isDirectChild(name, parent, delimiter string) bool {
	if delimiter == "" {
		return false
	}
	prefix := parent + delimiter
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	return !strings.Contains(strings.TrimPrefix(name, prefix), delimiter)
}

func hasAttr(attributes []string, target string) bool {
	for _, attr := range attributes {
		if strings.EqualFold(attr, target) {
			return true
		}
	}
	return false
}

func (c *IMAPClient) ListMessages(ctx context.Context, opts interfaces.MessagePageOptions) (*interfaces.MessagePage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPClient.ListMessages")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderIMAP))

	imapClient, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	folderName := opts.FolderID
	if folderName == "" {
		folderName = "INBOX"
	}

	mailbox, err := imapClient.Select(folderName, true)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to select %s", folderName)
	}

	if mailbox.Messages == 0 {
		return &interfaces.MessagePage{}, nil
	}

	// Page tokens are an offset from the newest message
	offset := uint32(0)
	if opts.PageToken != "" {
		parsed, err := strconv.ParseUint(opts.PageToken, 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "invalid page token")
		}
		offset = uint32(parsed)
	}

	pageSize := uint32(opts.PageSize)
	if pageSize == 0 {
		pageSize = 25
	}

	if offset >= mailbox.Messages {
		return &interfaces.MessagePage{}, nil
	}

	to := mailbox.Messages - offset
	from := uint32(1)
	if to > pageSize {
		from = to - pageSize + 1
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(from, to)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, pageSize)
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- imapClient.Fetch(seqSet, items, messages)
	}()

	var fetched []*imap.Message
	for message := range messages {
		fetched = append(fetched, message)
	}
	if err := <-fetchDone; err != nil {
		return nil, errors.Wrap(err, "failed to fetch messages")
	}

	// Newest first
	sort.Slice(fetched, func(i, j int) bool {
		return fetched[i].SeqNum > fetched[j].SeqNum
	})

	page := &interfaces.MessagePage{}
	for _, message := range fetched {
		remote, err := messageToRemote(message, folderName, section)
		if err != nil {
			c.log.Warnf("skipping unparseable message uid %d in %s: %v", message.Uid, folderName, err)
			continue
		}
		page.Messages = append(page.Messages, *remote)
	}

	if from > 1 {
		page.NextLink = strconv.FormatUint(uint64(offset)+uint64(len(fetched)), 10)
	}
	return page, nil
}

// ListMessagesSince resumes the folder from its UID checkpoint. The window
// walks oldest to newest so messages beyond the page size are picked up by
// the next sync instead of being skipped.
func (c *IMAPClient) ListMessagesSince(ctx context.Context, opts interfaces.MessagePageOptions, checkpoints map[string]uint32) (*interfaces.MessagePage, map[string]uint32, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPClient.ListMessagesSince")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderIMAP))

	imapClient, err := c.connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	folderName := opts.FolderID
	if folderName == "" {
		folderName = "INBOX"
	}
	lastUID := checkpoints[folderName]
	span.SetTag("last-uid", lastUID)

	mailbox, err := imapClient.Select(folderName, true)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to select %s", folderName)
	}

	marks := make(map[string]uint32)
	if mailbox.Messages == 0 {
		return &interfaces.MessagePage{}, marks, nil
	}

	pageSize := uint32(opts.PageSize)
	if pageSize == 0 {
		pageSize = 25
	}

	// "N:*" still matches the last message when N exceeds every UID, so
	// anything at or below the checkpoint is filtered after the fetch
	seqSet := new(imap.SeqSet)
	seqSet.AddRange(lastUID+1, 0)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, pageSize)
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- imapClient.UidFetch(seqSet, items, messages)
	}()

	var fetched []*imap.Message
	for message := range messages {
		fetched = append(fetched, message)
	}
	if err := <-fetchDone; err != nil {
		return nil, nil, errors.Wrap(err, "failed to fetch messages")
	}

	sort.Slice(fetched, func(i, j int) bool {
		return fetched[i].Uid < fetched[j].Uid
	})

	var window []*imap.Message
	for _, message := range fetched {
		if message.Uid <= lastUID {
			continue
		}
		window = append(window, message)
		if uint32(len(window)) >= pageSize {
			break
		}
	}

	page := &interfaces.MessagePage{}
	maxUID := lastUID
	// Newest first
	for i := len(window) - 1; i >= 0; i-- {
		message := window[i]
		if message.Uid > maxUID {
			maxUID = message.Uid
		}
		remote, err := messageToRemote(message, folderName, section)
		if err != nil {
			c.log.Warnf("skipping unparseable message uid %d in %s: %v", message.Uid, folderName, err)
			continue
		}
		page.Messages = append(page.Messages, *remote)
	}

	if maxUID > lastUID {
		marks[folderName] = maxUID
	}
	return page, marks, nil
}

func (c *IMAPClient) FetchAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPClient.FetchAttachment")
	defer span.Finish()
	tracing.TagComponentProviderClient(span)
	tracing.TagProvider(span, string(enum.ProviderIMAP))

	folderName, uid, err := splitMessageID(messageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}

	imapClient, err := c.connect(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}

	if _, err := imapClient.Select(folderName, true); err != nil {
		tracing.TraceErr(span, err)
		return nil, "", errors.Wrapf(err, "failed to select %s", folderName)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 1)
	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- imapClient.UidFetch(seqSet, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var fetched *imap.Message
	for message := range messages {
		fetched = message
	}
	if err := <-fetchDone; err != nil {
		tracing.TraceErr(span, err)
		return nil, "", errors.Wrap(err, "failed to fetch message")
	}
	if fetched == nil {
		err := errors.Errorf("message %s not found", messageID)
		tracing.TraceErr(span, err)
		return nil, "", err
	}

	content, contentType, err := extractAttachment(fetched, section, attachmentID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}
	return content, contentType, nil
}
