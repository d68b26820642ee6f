package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"loglens/internal/app/errors"
	"loglens/internal/app/timestamp"
	"loglens/internal/app/watcher"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// File is one discovered log file with the timestamp parsed from its name
type File struct {
	Path string
	Name string
	Time time.Time
}

// Group holds the selected files of one service, newest first
type Group struct {
	Service string
	Files   []File
}

// Discovery finds workspace log files and selects the newest per service
type Discovery interface {
	Discover() ([]Group, error)
}

// discovery implements the Discovery interface
type discovery struct {
	fs      afero.Fs
	cfg     *config.Config
	matcher watcher.Matcher
	log     logger.Logger
}

// errWalkDone stops the workspace walk once the file cap is reached
var errWalkDone = errors.New("walk done")

// NewDiscovery creates a new log file discovery instance
func NewDiscovery(cfg *config.Config, log logger.Logger) (Discovery, error) {
	return NewDiscoveryWithFs(afero.NewOsFs(), cfg, log)
}

// NewDiscoveryWithFs creates a discovery over an explicit filesystem
func NewDiscoveryWithFs(fs afero.Fs, cfg *config.Config, log logger.Logger) (Discovery, error) {
	matcher, err := watcher.NewMatcher(cfg.Include, cfg.Ignore)
	if err != nil {
		return nil, err
	}

	return &discovery{
		fs:      fs,
		cfg:     cfg,
		matcher: matcher,
		log:     log.WithComponent("DISCOVERY"),
	}, nil
}

// Discover walks the workspace, groups matching files by service and
// keeps only the newest files per service up to the configured cap.
func (d *discovery) Discover() ([]Group, error) {
	if exists, err := afero.DirExists(d.fs, d.cfg.Workspace); err != nil || !exists {
		return nil, errors.ErrWorkspaceNotFound
	}

	files, err := d.collect()
	if err != nil {
		return nil, err
	}

	return d.group(files), nil
}

// collect gathers matching files in walk order, capped at Limits.MaxFiles
func (d *discovery) collect() ([]File, error) {
	files := make([]File, 0, d.cfg.Limits.MaxFiles)

	err := afero.Walk(d.fs, d.cfg.Workspace, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			d.log.Warn().Err(err).Msgf("Skipping unreadable path: %s", path)
			return nil
		}

		rel, relErr := filepath.Rel(d.cfg.Workspace, path)
		if relErr != nil {
			rel = path
		}

		if info.IsDir() {
			if path != d.cfg.Workspace && d.matcher.SkipDir(rel) {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.matcher.Match(rel) {
			return nil
		}

		ts, _ := timestamp.FromFilename(path)

		files = append(files, File{
			Path: path,
			Name: filepath.Base(path),
			Time: ts,
		})

		if len(files) >= d.cfg.Limits.MaxFiles {
			return errWalkDone
		}

		return nil
	})

	if err != nil && !errors.Is(err, errWalkDone) {
		return nil, err
	}

	return files, nil
}

// group buckets files by service name, orders each bucket descending by
// filename timestamp (stable, so discovery order breaks ties) and
// truncates to the per-service cap.
func (d *discovery) group(files []File) []Group {
	buckets := make(map[string][]File)
	order := make([]string, 0)

	for _, f := range files {
		service := ServiceName(f.Name)

		if _, seen := buckets[service]; !seen {
			order = append(order, service)
		}

		buckets[service] = append(buckets[service], f)
	}

	groups := make([]Group, 0, len(order))

	for _, service := range order {
		bucket := buckets[service]

		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Time.After(bucket[j].Time)
		})

		if len(bucket) > d.cfg.Limits.MaxFilesPerService {
			bucket = bucket[:d.cfg.Limits.MaxFilesPerService]
		}

		groups = append(groups, Group{Service: service, Files: bucket})
	}

	return groups
}

// ServiceName derives the owning service from a log file name: the
// substring before the first underscore, or the bare name without its
// extension when no underscore is present.
func ServiceName(fileName string) string {
	if idx := strings.Index(fileName, "_"); idx > 0 {
		return fileName[:idx]
	}

	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
