package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/sdmap/internal/utils"
)

const (
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	errorTraversalFormat    = "traversing %s: %v"

	logMessageDirectorySkipped = "directory skipped"
	logMessageDirectoryIndexed = "directory indexed"
	logMessageLinkSkipped      = "directory link not followed"
	logMessageCollision        = "directory name collides with the reserved files key; entry left out"
	logFieldPath               = "path"
	logFieldFiles              = "files"
	logFieldSegment            = "segment"
)

var errNotDirectory = errors.New("not a directory")

// TraversalError reports a filesystem failure while indexing. It aborts the whole run.
type TraversalError struct {
	Path string
	Err  error
}

func (traversalError *TraversalError) Error() string {
	return fmt.Sprintf(errorTraversalFormat, traversalError.Path, traversalError.Err)
}

func (traversalError *TraversalError) Unwrap() error {
	return traversalError.Err
}

// Options configures a Build run.
type Options struct {
	Root   string
	Skip   SkipRule
	Logger *zap.Logger
}

// Result is the outcome of a complete traversal.
type Result struct {
	// Root is the anonymous top node; its children are the root's subdirectories.
	Root *DirectoryNode
	// Collisions lists directories left out because of the reserved FilesKey name.
	Collisions []InsertResult
	// Skipped lists the relative paths of pruned directories.
	Skipped []string
	// Links lists the relative paths of symbolic links to directories. They are
	// neither descended into nor listed as files.
	Links []string
	// Directories counts directories whose files were attached to the tree.
	Directories int
	// Files counts attached file names.
	Files int
}

// Build walks Options.Root top-down and returns the directory tree. Each directory's
// direct non-directory entries are attached, in lexical order, to the node addressed
// by its relative path. Directories matched by the skip rule are pruned with their
// whole subtree; the root is always descended but never attached. Symbolic links are
// not followed: links to directories are left out and other links are listed as
// files. Any read failure aborts the run with a *TraversalError.
func Build(options Options) (Result, error) {
	absoluteRoot, absoluteError := filepath.Abs(options.Root)
	if absoluteError != nil {
		return Result{}, fmt.Errorf(errorAbsolutePathFormat, options.Root, absoluteError)
	}
	rootInformation, statError := os.Stat(absoluteRoot)
	if statError != nil {
		return Result{}, &TraversalError{Path: absoluteRoot, Err: statError}
	}
	if !rootInformation.IsDir() {
		return Result{}, &TraversalError{Path: absoluteRoot, Err: errNotDirectory}
	}

	builder := &treeBuilder{
		skip:   options.Skip,
		logger: utils.LoggerOrNop(options.Logger),
		result: Result{Root: NewDirectoryNode()},
	}
	if err := builder.visit(absoluteRoot, utils.SelfRelativePath); err != nil {
		return Result{}, err
	}
	builder.result.Root.PruneEmptyFiles()
	return builder.result, nil
}

type treeBuilder struct {
	skip   SkipRule
	logger *zap.Logger
	result Result
}

func (builder *treeBuilder) visit(directoryPath string, relativePath string) error {
	isRoot := relativePath == utils.SelfRelativePath
	if !isRoot && builder.skip.Matches(relativePath) {
		builder.result.Skipped = append(builder.result.Skipped, relativePath)
		builder.logger.Debug(logMessageDirectorySkipped, zap.String(logFieldPath, relativePath))
		return nil
	}

	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return &TraversalError{Path: directoryPath, Err: readError}
	}
	var fileNames []string
	var subdirectoryNames []string
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			subdirectoryNames = append(subdirectoryNames, directoryEntry.Name())
			continue
		}
		if directoryEntry.Type()&fs.ModeSymlink != 0 && isDirectoryLink(filepath.Join(directoryPath, directoryEntry.Name())) {
			linkPath := utils.JoinRelativePath(relativePath, directoryEntry.Name())
			builder.result.Links = append(builder.result.Links, linkPath)
			builder.logger.Debug(logMessageLinkSkipped, zap.String(logFieldPath, linkPath))
			continue
		}
		fileNames = append(fileNames, directoryEntry.Name())
	}

	if !isRoot {
		builder.attach(relativePath, fileNames)
	}

	for _, subdirectoryName := range subdirectoryNames {
		childPath := filepath.Join(directoryPath, subdirectoryName)
		if err := builder.visit(childPath, utils.JoinRelativePath(relativePath, subdirectoryName)); err != nil {
			return err
		}
	}
	return nil
}

// isDirectoryLink reports whether the symbolic link at linkPath resolves to a
// directory. Broken links are not directories.
func isDirectoryLink(linkPath string) bool {
	targetInformation, err := os.Stat(linkPath)
	return err == nil && targetInformation.IsDir()
}

func (builder *treeBuilder) attach(relativePath string, fileNames []string) {
	insertResult := builder.result.Root.Insert(utils.SplitRelativePath(relativePath))
	if insertResult.Collision {
		builder.result.Collisions = append(builder.result.Collisions, insertResult)
		builder.logger.Warn(logMessageCollision,
			zap.String(logFieldPath, relativePath),
			zap.Int(logFieldSegment, insertResult.CollisionIndex),
		)
		return
	}
	insertResult.Node.AppendFiles(fileNames...)
	builder.result.Directories++
	builder.result.Files += len(fileNames)
	builder.logger.Debug(logMessageDirectoryIndexed,
		zap.String(logFieldPath, relativePath),
		zap.Int(logFieldFiles, len(fileNames)),
	)
}
