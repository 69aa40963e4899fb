package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repoprompt/internal/utils"
)

const (
	defaultConcurrency = 4

	recordPathSuffix = ":\n"
	recordFenceOpen  = "```\n"
	recordFenceClose = "\n```\n\n"

	logMessageSpecNotFound     = "path specification not found"
	logMessageResolveFailed    = "skipping path specification"
	logMessageReadFailed       = "skipping unreadable file"
	logMessageExcludedFile     = "file excluded"
	logMessageDuplicateFile    = "file already included"
	logMessageAggregationStats = "template aggregated"
)

// Options tunes an aggregation run.
type Options struct {
	// Logger receives diagnostics. A nil logger discards them.
	Logger *zap.Logger
	// StrictReads aborts the run on the first unreadable file instead of skipping it.
	// An exclusion spec whose traversal fails also aborts the run.
	StrictReads bool
	// Concurrency bounds parallel resolution of exclusion specs. Values below one use the default.
	Concurrency int
	// ReadFile reads included files. Nil means os.ReadFile.
	ReadFile func(path string) ([]byte, error)
	// ReadDir lists directories during traversal. Nil means os.ReadDir.
	ReadDir ReadDirectoryFunc
}

// Record describes one file emitted into the aggregate text.
type Record struct {
	RelativePath string
	AbsolutePath string
	SizeBytes    int64
}

// Result is the outcome of a successful aggregation run.
type Result struct {
	Text    string
	Records []Record
	// MissingSpecs lists raw specs, exclusions first, whose path did not exist.
	MissingSpecs []string
	// SkippedFiles lists absolute paths that resolved but could not be read.
	SkippedFiles []string
}

// TotalBytes sums the size of every emitted record.
func (result Result) TotalBytes() int64 {
	var totalBytes int64
	for _, record := range result.Records {
		totalBytes += record.SizeBytes
	}
	return totalBytes
}

// Aggregate resolves templateText against baseDirectory and returns the formatted text.
func Aggregate(baseDirectory string, templateText string, options Options) (string, error) {
	result, runError := Run(baseDirectory, templateText, options)
	if runError != nil {
		return "", runError
	}
	return result.Text, nil
}

// ResolveWorkspace validates baseDirectory and returns its cleaned absolute form.
func ResolveWorkspace(baseDirectory string) (string, error) {
	if strings.TrimSpace(baseDirectory) == "" {
		return "", ErrNoWorkspace
	}
	absoluteDirectory, absoluteError := filepath.Abs(baseDirectory)
	if absoluteError != nil {
		return "", fmt.Errorf("%w: %v", ErrNoWorkspace, absoluteError)
	}
	directoryInformation, statError := os.Stat(absoluteDirectory)
	if statError != nil {
		return "", fmt.Errorf("%w: %v", ErrNoWorkspace, statError)
	}
	if !directoryInformation.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNoWorkspace, absoluteDirectory)
	}
	return filepath.Clean(absoluteDirectory), nil
}

// Run performs the two-pass aggregation.
//
// Every exclusion directive is resolved before any inclusion directive, so an
// exclusion applies no matter where it appears in the template. Inclusion
// directives are then processed top to bottom; comment and blank lines are
// copied through, and each resolved file that is neither excluded nor already
// emitted becomes one record. Only trailing whitespace at the very end of the
// text is trimmed.
func Run(baseDirectory string, templateText string, options Options) (Result, error) {
	workspaceDirectory, workspaceError := ResolveWorkspace(baseDirectory)
	if workspaceError != nil {
		return Result{}, workspaceError
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	readFile := options.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	resolver := specResolver{
		workspaceDirectory: workspaceDirectory,
		readDirectory:      options.ReadDir,
		logger:             logger,
	}
	if resolver.readDirectory == nil {
		resolver.readDirectory = os.ReadDir
	}

	directives := ParseLines(templateText)
	var result Result

	exclusionSet, missingExclusions, exclusionError := resolver.buildExclusionSet(directives, options.Concurrency, options.StrictReads)
	if exclusionError != nil {
		return Result{}, exclusionError
	}
	result.MissingSpecs = append(result.MissingSpecs, missingExclusions...)

	processedSet := make(map[string]struct{})
	var outputBuilder strings.Builder

	for _, directive := range directives {
		switch directive.Kind {
		case DirectiveBlank, DirectiveComment:
			outputBuilder.WriteString(directive.Line)
			outputBuilder.WriteString(lineSeparator)
		case DirectiveExclude:
			continue
		case DirectiveInclude:
			resolvedPaths, missing, _ := resolver.resolveLogged(directive)
			if missing {
				result.MissingSpecs = append(result.MissingSpecs, directive.Spec)
			}
			for _, filePath := range resolvedPaths {
				if _, excluded := exclusionSet[filePath]; excluded {
					logger.Debug(logMessageExcludedFile, zap.String("path", filePath))
					continue
				}
				if _, processed := processedSet[filePath]; processed {
					logger.Debug(logMessageDuplicateFile, zap.String("path", filePath))
					continue
				}
				processedSet[filePath] = struct{}{}

				fileBytes, readError := readFile(filePath)
				if readError != nil {
					if options.StrictReads {
						return Result{}, &ReadError{Path: filePath, Err: readError}
					}
					logger.Warn(logMessageReadFailed, zap.String("path", filePath), zap.Error(readError))
					result.SkippedFiles = append(result.SkippedFiles, filePath)
					continue
				}

				relativePath := utils.RelativePathOrSelf(filePath, workspaceDirectory)
				writeRecord(&outputBuilder, relativePath, fileBytes)
				result.Records = append(result.Records, Record{
					RelativePath: relativePath,
					AbsolutePath: filePath,
					SizeBytes:    int64(len(fileBytes)),
				})
			}
		}
	}

	result.Text = strings.TrimRightFunc(outputBuilder.String(), unicode.IsSpace)
	logger.Debug(
		logMessageAggregationStats,
		zap.String("workspace", workspaceDirectory),
		zap.Int("records", len(result.Records)),
		zap.Int("missing", len(result.MissingSpecs)),
		zap.Int("skipped", len(result.SkippedFiles)),
	)
	return result, nil
}

type specResolver struct {
	workspaceDirectory string
	readDirectory      ReadDirectoryFunc
	logger             *zap.Logger
}

// buildExclusionSet resolves every exclusion directive and unions the results.
// The union does not depend on order, so specs are resolved concurrently.
// With strict set, the first exclusion that fails to traverse is returned.
func (resolver specResolver) buildExclusionSet(directives []Directive, concurrency int, strict bool) (map[string]struct{}, []string, error) {
	var exclusionDirectives []Directive
	for _, directive := range directives {
		if directive.Kind == DirectiveExclude && directive.Spec != "" {
			exclusionDirectives = append(exclusionDirectives, directive)
		}
	}
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	resolvedPaths := make([][]string, len(exclusionDirectives))
	missingFlags := make([]bool, len(exclusionDirectives))
	var group errgroup.Group
	group.SetLimit(concurrency)
	for directiveIndex, directive := range exclusionDirectives {
		group.Go(func() error {
			var resolveError error
			resolvedPaths[directiveIndex], missingFlags[directiveIndex], resolveError = resolver.resolveLogged(directive)
			if strict {
				return resolveError
			}
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, nil, waitError
	}

	exclusionSet := make(map[string]struct{})
	var missingSpecs []string
	for directiveIndex, filePaths := range resolvedPaths {
		if missingFlags[directiveIndex] {
			missingSpecs = append(missingSpecs, exclusionDirectives[directiveIndex].Spec)
		}
		for _, filePath := range filePaths {
			exclusionSet[filePath] = struct{}{}
		}
	}
	return exclusionSet, missingSpecs, nil
}

// resolveLogged resolves the directive's spec and logs problems. A traversal
// failure drops the whole spec and is returned as the third value. The
// boolean reports that the path does not exist.
func (resolver specResolver) resolveLogged(directive Directive) ([]string, bool, error) {
	resolution, resolveError := resolvePathSpec(resolver.workspaceDirectory, ParsePathSpec(directive.Spec), resolver.readDirectory)
	if resolveError != nil {
		resolver.logger.Warn(
			logMessageResolveFailed,
			zap.String("directive", directive.Kind.String()),
			zap.Int("line", directive.Number),
			zap.Error(resolveError),
		)
		return nil, false, resolveError
	}
	if !resolution.Found {
		resolver.logger.Warn(
			logMessageSpecNotFound,
			zap.String("directive", directive.Kind.String()),
			zap.Int("line", directive.Number),
			zap.String("spec", directive.Spec),
			zap.Error(resolution.Err()),
		)
		return nil, true, nil
	}
	return resolution.Paths, false, nil
}

func writeRecord(outputBuilder *strings.Builder, relativePath string, content []byte) {
	outputBuilder.WriteString(relativePath)
	outputBuilder.WriteString(recordPathSuffix)
	outputBuilder.WriteString(recordFenceOpen)
	outputBuilder.Write(content)
	outputBuilder.WriteString(recordFenceClose)
}
