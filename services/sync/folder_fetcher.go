package sync

import (
	"context"

	"github.com/opentracing/opentracing-go"

	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/tracing"
)

// FolderFetcher walks the remote folder hierarchy of one account into a
// complete tree. The walk is iterative over a worklist; a failed branch is
// recorded and skipped without abandoning the rest of the tree.
type FolderFetcher struct {
	client interfaces.MailClient
	log    logger.Logger
}

func NewFolderFetcher(client interfaces.MailClient, log logger.Logger) *FolderFetcher {
	return &FolderFetcher{
		client: client,
		log:    log,
	}
}

// FetchFolderTree lists the root folders and resolves children for every
// folder that reports any. A failure on the root listing fails the whole
// fetch; failures below the roots only fail their branch.
func (f *FolderFetcher) FetchFolderTree(ctx context.Context) (*interfaces.FolderTree, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FolderFetcher.FetchFolderTree")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagProvider(span, string(f.client.Provider()))

	roots, err := f.fetchAllPages(ctx, func(pageToken string) (*interfaces.FolderPage, error) {
		return f.client.ListFolders(ctx, pageToken)
	})
	if err != nil {
		fetchErr := mirror_errors.NewFetchError(mirror_errors.FetchScopeRootFolders, "", err)
		tracing.TraceErr(span, fetchErr)
		return nil, fetchErr
	}

	tree := &interfaces.FolderTree{}
	var worklist []*interfaces.FolderNode

	for _, folder := range roots {
		node := &interfaces.FolderNode{Folder: folder}
		tree.Roots = append(tree.Roots, node)
		if folder.ChildFolderCount > 0 {
			worklist = append(worklist, node)
		}
	}

	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}

		node := worklist[0]
		worklist = worklist[1:]

		children, err := f.fetchAllPages(ctx, func(pageToken string) (*interfaces.FolderPage, error) {
			return f.client.ListChildFolders(ctx, node.Folder.ID, pageToken)
		})
		if err != nil {
			if ctx.Err() != nil {
				tracing.TraceErr(span, ctx.Err())
				return nil, ctx.Err()
			}
			branchErr := mirror_errors.NewFetchError(mirror_errors.FetchScopeChildFolders, node.Folder.ID, err)
			f.log.Warnf("folder branch %s failed: %v", node.Folder.ID, branchErr)
			tree.BranchErrors = append(tree.BranchErrors, branchErr)
			continue
		}

		for _, folder := range children {
			child := &interfaces.FolderNode{Folder: folder}
			node.Children = append(node.Children, child)
			if folder.ChildFolderCount > 0 {
				worklist = append(worklist, child)
			}
		}
	}

	span.SetTag("folders", countNodes(tree.Roots))
	span.SetTag("branch-errors", len(tree.BranchErrors))
	return tree, nil
}

// fetchAllPages drains a paginated listing until the continuation link runs
// out.
func (f *FolderFetcher) fetchAllPages(ctx context.Context, fetch func(pageToken string) (*interfaces.FolderPage, error)) ([]interfaces.RemoteFolder, error) {
	var folders []interfaces.RemoteFolder
	pageToken := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(pageToken)
		if err != nil {
			return nil, err
		}
		folders = append(folders, page.Folders...)

		if page.NextLink == "" {
			return folders, nil
		}
		pageToken = page.NextLink
	}
}

func countNodes(roots []*interfaces.FolderNode) int {
	count := 0
	worklist := append([]*interfaces.FolderNode{}, roots...)
	for len(worklist) > 0 {
		node := worklist[0]
		worklist = worklist[1:]
		count++
		worklist = append(worklist, node.Children...)
	}
	return count
}
