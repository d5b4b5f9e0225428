package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"warden/pkg/logging"
)

// manifestDirs maps resource types to their subdirectory under the
// manifest root.
var manifestDirs = map[ResourceType]string{
	ResourceTypePlatform:        "platforms",
	ResourceTypePlatformBackup:  "platformbackups",
	ResourceTypePlatformRestore: "platformrestores",
}

// FilesystemDetector watches a manifest directory for YAML changes and
// emits ChangeEvents. It exists for local development: one file per
// resource, named <name>.yaml, under the resource type's subdirectory.
type FilesystemDetector struct {
	mu sync.RWMutex

	// basePath is the manifest root directory.
	basePath string

	watcher *fsnotify.Watcher

	resourceTypes map[ResourceType]bool

	// debounceInterval coalesces rapid successive writes to one file
	// into a single event.
	debounceInterval time.Duration

	pendingEvents map[string]*debounceEntry

	stopCh  chan struct{}
	running bool
}

type debounceEntry struct {
	event     ChangeEvent
	timer     *time.Timer
	operation ChangeOperation
}

// NewFilesystemDetector creates a detector over basePath. A zero
// debounce interval defaults to 500ms.
func NewFilesystemDetector(basePath string, debounceInterval time.Duration) *FilesystemDetector {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}
	return &FilesystemDetector{
		basePath:         basePath,
		resourceTypes:    make(map[ResourceType]bool),
		debounceInterval: debounceInterval,
		pendingEvents:    make(map[string]*debounceEntry),
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching the manifest directories.
func (d *FilesystemDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.watcher = watcher
	d.running = true
	d.stopCh = make(chan struct{})

	types := make([]ResourceType, 0, len(d.resourceTypes))
	for rt := range d.resourceTypes {
		types = append(types, rt)
	}
	d.mu.Unlock()

	for _, rt := range types {
		if err := d.addWatch(rt); err != nil {
			logging.Warn("FilesystemDetector", "Failed to watch %s directory: %v", rt, err)
		}
	}

	go d.processEvents(ctx, changes)

	logging.Info("FilesystemDetector", "Watching %s for manifest changes", d.basePath)
	return nil
}

func (d *FilesystemDetector) addWatch(resourceType ResourceType) error {
	dirName, ok := manifestDirs[resourceType]
	if !ok {
		return nil
	}

	watchPath := filepath.Join(d.basePath, dirName)
	if err := os.MkdirAll(watchPath, 0755); err != nil {
		return err
	}
	if err := d.watcher.Add(watchPath); err != nil {
		return err
	}

	logging.Debug("FilesystemDetector", "Watching directory %s", watchPath)
	return nil
}

func (d *FilesystemDetector) processEvents(ctx context.Context, changes chan<- ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			d.cancelPending()
			return

		case <-d.stopCh:
			d.cancelPending()
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handleFsEvent(event, changes)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("FilesystemDetector", err, "Watcher error")
		}
	}
}

func (d *FilesystemDetector) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	if !isYAMLFile(event.Name) {
		return
	}

	resourceType, name := d.parseManifestPath(event.Name)
	if resourceType == "" {
		return
	}

	d.mu.RLock()
	watching := d.resourceTypes[resourceType]
	d.mu.RUnlock()
	if !watching {
		return
	}

	var operation ChangeOperation
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		operation = OperationCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		operation = OperationUpdate
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		operation = OperationDelete
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		// The old name disappears; the new name arrives as a create.
		operation = OperationDelete
	default:
		return
	}

	d.debounce(ChangeEvent{
		Type:      resourceType,
		Name:      name,
		Operation: operation,
		Timestamp: time.Now(),
		Source:    SourceFilesystem,
		FilePath:  event.Name,
	}, changes)
}

// debounce delays emission so editors that write a file several times
// in quick succession trigger one reconcile.
func (d *FilesystemDetector) debounce(event ChangeEvent, changes chan<- ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := string(event.Type) + "/" + event.Name

	if entry, ok := d.pendingEvents[key]; ok {
		entry.timer.Stop()
		event.Operation = mergeOperations(entry.operation, event.Operation)
	}

	timer := time.AfterFunc(d.debounceInterval, func() {
		d.mu.Lock()
		entry, ok := d.pendingEvents[key]
		if ok {
			delete(d.pendingEvents, key)
		}
		d.mu.Unlock()

		if !ok {
			return
		}
		select {
		case changes <- entry.event:
			logging.Debug("FilesystemDetector", "Change event: %s %s/%s",
				entry.event.Operation, entry.event.Type, entry.event.Name)
		default:
			logging.Warn("FilesystemDetector", "Change channel full, dropping event for %s/%s",
				entry.event.Type, entry.event.Name)
		}
	})

	d.pendingEvents[key] = &debounceEntry{
		event:     event,
		timer:     timer,
		operation: event.Operation,
	}
}

// mergeOperations collapses two operations seen within the debounce
// window into the one that should be emitted.
func mergeOperations(old, new ChangeOperation) ChangeOperation {
	if old == OperationCreate {
		if new == OperationDelete {
			return OperationDelete
		}
		return OperationCreate
	}
	if old == OperationUpdate && new == OperationDelete {
		return OperationDelete
	}
	return new
}

// parseManifestPath extracts the resource type and name from a manifest
// file path.
func (d *FilesystemDetector) parseManifestPath(path string) (ResourceType, string) {
	relPath, err := filepath.Rel(d.basePath, path)
	if err != nil {
		return "", ""
	}

	parts := strings.Split(relPath, string(filepath.Separator))
	if len(parts) < 2 {
		return "", ""
	}

	var resourceType ResourceType
	for rt, dn := range manifestDirs {
		if dn == parts[0] {
			resourceType = rt
			break
		}
	}
	if resourceType == "" {
		return "", ""
	}

	name := strings.TrimSuffix(parts[len(parts)-1], ".yaml")
	name = strings.TrimSuffix(name, ".yml")
	return resourceType, name
}

func (d *FilesystemDetector) cancelPending() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range d.pendingEvents {
		entry.timer.Stop()
	}
	d.pendingEvents = make(map[string]*debounceEntry)
}

// Stop closes the watcher and drops pending events.
func (d *FilesystemDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}
	d.running = false
	close(d.stopCh)

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			logging.Error("FilesystemDetector", err, "Closing watcher")
		}
		d.watcher = nil
	}

	logging.Info("FilesystemDetector", "Stopped")
	return nil
}

// GetSource returns SourceFilesystem.
func (d *FilesystemDetector) GetSource() ChangeSource {
	return SourceFilesystem
}

// AddResourceType registers a resource type and, when running, starts
// watching its directory immediately.
func (d *FilesystemDetector) AddResourceType(resourceType ResourceType) error {
	d.mu.Lock()
	d.resourceTypes[resourceType] = true
	running := d.running
	d.mu.Unlock()

	if running {
		return d.addWatch(resourceType)
	}
	return nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
