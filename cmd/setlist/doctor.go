package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/audio"
	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/store"
	"github.com/franz/setlist/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure setlist can operate correctly.

This command checks:
- SQLite version compatibility
- Database accessibility and integrity
- Database on a network filesystem
- Audit log directory
- Voice memo capture command
- Gemini API key
- Disk space next to the database

Use this command to troubleshoot issues before recording or serving.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Setlist Doctor - System Diagnostics ===")
	util.InfoLog("")

	dbPath := GetConfigPath("db", "~/.setlist/setlist.db")
	backend := GetConfigString("store.backend", store.BackendSQLite)

	results := []checkResult{
		checkSQLite(),
		checkDatabase(backend, dbPath),
		checkDatabaseFilesystem(backend, dbPath),
		checkAuditDir(GetConfigPath("audit.dir", "")),
		checkCaptureCommand(GetConfigString("record.command", audio.DefaultCaptureCommand)),
		checkAPIKey(apiKey()),
		checkDiskSpace(filepath.Dir(dbPath)),
	}

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	// Summary
	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before using setlist.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Related features fall back or stay off.")
	} else {
		util.SuccessLog("✅ All checks passed!")
	}

	return nil
}

// checkSQLite verifies SQLite version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies the store opens and reports its contents
func checkDatabase(backend, dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	wantDir := backend == store.BackendBadger
	if info.IsDir() != wantDir {
		kind := "a regular file"
		if wantDir {
			kind = "a directory"
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not %s (backend %s)", dbPath, kind, backend),
		}
	}

	b, err := store.OpenBackend(backend, dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer b.Close()

	if s, ok := b.(*store.Store); ok {
		if err := s.CheckIntegrity(); err != nil {
			return checkResult{
				name:    "Database",
				error:   true,
				message: fmt.Sprintf("integrity check failed: %v", err),
			}
		}
	}

	kv := store.NewKV(b)
	locations, songs := 0, 0
	if raw, ok := kv.Load(store.KeyLocations); ok {
		decoded, _ := model.DecodeLocations(raw)
		locations = len(decoded)
	}
	if raw, ok := kv.Load(store.KeySongs); ok {
		decoded, _ := model.DecodeSongs(raw)
		songs = len(decoded)
	}

	size := humanize.Bytes(uint64(info.Size()))
	if info.IsDir() {
		size = "directory"
	}

	return checkResult{
		name:    "Database",
		message: fmt.Sprintf("%s (%s, %s, %d venues, %d songs)", dbPath, backend, size, locations, songs),
	}
}

// checkDatabaseFilesystem warns when the database sits on a network mount;
// SQLite WAL mode and Badger's directory lock need a local filesystem
func checkDatabaseFilesystem(backend, dbPath string) checkResult {
	info, err := util.StatMount(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database filesystem",
			warning: true,
			message: fmt.Sprintf("cannot determine filesystem: %v", err),
		}
	}

	if info.Network {
		return checkResult{
			name:    "Database filesystem",
			warning: true,
			message: fmt.Sprintf("%s is on %s (%s); %s locking is unreliable over the network, keep the database on a local disk",
				dbPath, info.FSType, info.MountPoint, backend),
		}
	}

	fsType := info.FSType
	if fsType == "" {
		fsType = "local"
	}
	return checkResult{
		name:    "Database filesystem",
		message: fsType,
	}
}

// checkAuditDir verifies the audit directory is writable
func checkAuditDir(path string) checkResult {
	if path == "" {
		return checkResult{
			name:    "Audit log",
			warning: true,
			message: "disabled (audit.dir is empty)",
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return checkResult{
			name:    "Audit log",
			error:   true,
			message: fmt.Sprintf("cannot create %s: %v", path, err),
		}
	}

	// Check write permission by creating a temp file
	testFile := filepath.Join(path, ".setlist_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Audit log",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Audit log",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkCaptureCommand verifies the recording program is installed (optional)
func checkCaptureCommand(command string) checkResult {
	dev := audio.NewCommandDevice(command)
	if !dev.Available() {
		return checkResult{
			name:    "Capture command (optional)",
			warning: true,
			message: fmt.Sprintf("%q not found (needed only for 'setlist record' without --file)", dev.Command),
		}
	}
	return checkResult{
		name:    "Capture command (optional)",
		message: dev.Command,
	}
}

// checkAPIKey reports whether AI suggestions are live
func checkAPIKey(key string) checkResult {
	if key == "" {
		return checkResult{
			name:    "Gemini API key (optional)",
			warning: true,
			message: "not set (suggestions fall back to list order and a generic tip)",
		}
	}
	return checkResult{
		name:    "Gemini API key (optional)",
		message: fmt.Sprintf("set (model %s)", GetConfigString("ai.model", "")),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string) checkResult {
	// walk up to an existing directory; the database dir may not exist yet
	for {
		if _, err := os.Stat(path); err == nil || filepath.Dir(path) == path {
			break
		}
		path = filepath.Dir(path)
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    "Disk space",
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)

	// warn below 500 MB
	warning := availBytes < 500*1000*1000
	warningMsg := ""
	if warning {
		warningMsg = " (low space!)"
	}

	return checkResult{
		name:    "Disk space",
		warning: warning,
		message: fmt.Sprintf("%s available at %s%s", humanize.Bytes(availBytes), path, warningMsg),
	}
}
