package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docchat/internal/connectors/filesystem"
	"github.com/custodia-labs/docchat/internal/connectors/google"
	"github.com/custodia-labs/docchat/internal/connectors/google/drive"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Config keys for the Google Drive connector.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDriveServiceAccount = "gdrive.service_account_file"
	keyDriveTokenFile      = "gdrive.token_file"
	keyDriveClientID       = "gdrive.client_id"
	keyDriveClientSecret   = "gdrive.client_secret"
	keyDriveFolderIDs      = "gdrive.folder_ids"
	keyDriveContentTypes   = "gdrive.content_types"
	keyDriveMIMETypes      = "gdrive.mime_types"
)

// driveTokenFileName is the default token file under the config directory.
const driveTokenFileName = "gdrive-token.json"

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise documents from a source",
	Long: `Fetches every supported document from a source and ingests it into the
namespace. Documents already ingested successfully are skipped unless --force
is set. Unsupported formats are counted and skipped.`,
}

var syncDirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Synchronise a local directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncDir,
}

var syncDriveCmd = &cobra.Command{
	Use:   "gdrive",
	Short: "Synchronise Google Drive",
	Long: `Synchronises Google Drive files, Docs, Sheets and Slides.

Credentials come from gdrive.service_account_file, or from a user token
saved by 'docchat auth gdrive'. Set gdrive.folder_ids (or --folder) to
limit the sync to specific folders.`,
	Args: cobra.NoArgs,
	RunE: runSyncDrive,
}

var (
	syncForce   bool
	syncFolders []string
)

func init() {
	syncCmd.PersistentFlags().BoolVarP(&syncForce, "force", "f", false, "Re-ingest documents that already succeeded")
	syncDriveCmd.Flags().StringSliceVar(&syncFolders, "folder", nil, "Drive folder ID to sync (repeatable)")

	syncCmd.AddCommand(syncDirCmd)
	syncCmd.AddCommand(syncDriveCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSyncDir(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	conn := filesystem.New(args[0])
	defer conn.Close() //nolint:errcheck

	return runConnectorSync(cmd, conn)
}

func runSyncDrive(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	conn, err := openDriveConnector(commandContext(cmd))
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck

	return runConnectorSync(cmd, conn)
}

// runConnectorSync validates conn, drains it into the namespace and prints the report.
func runConnectorSync(cmd *cobra.Command, conn driven.Connector) error {
	ctx := commandContext(cmd)

	namespace, err := resolveNamespace(ctx)
	if err != nil {
		return err
	}

	if err := conn.Validate(ctx); err != nil {
		return fmt.Errorf("%s source: %w", conn.Type(), err)
	}

	cmd.Printf("Synchronising %s into namespace %s...\n", conn.Type(), namespace)

	report, err := syncService.Sync(ctx, conn, namespace, driving.SyncOptions{Force: syncForce})
	if report != nil {
		printSyncReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func printSyncReport(cmd *cobra.Command, report *driving.SyncReport) {
	cmd.Printf("Ingested: %d, skipped: %d, unsupported: %d, failed: %d\n",
		report.Ingested, report.Skipped, report.Unsupported, report.Failed)
	for _, err := range report.Errors {
		cmd.Printf("  error: %v\n", err)
	}
}

// openDriveConnector builds the Drive connector from config and flags.
func openDriveConnector(ctx context.Context) (*drive.Connector, error) {
	creds := google.Credentials{
		ServiceAccountFile: configString(keyDriveServiceAccount),
		TokenFile:          configString(keyDriveTokenFile),
		ClientID:           configString(keyDriveClientID),
		ClientSecret:       configString(keyDriveClientSecret),
	}
	if creds.ServiceAccountFile == "" && creds.TokenFile == "" {
		path, err := defaultDriveTokenFile()
		if err != nil {
			return nil, err
		}
		creds.TokenFile = path
	}

	ts, err := google.NewTokenSource(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("drive credentials: %w", err)
	}
	svc, err := google.NewDriveService(ctx, ts)
	if err != nil {
		return nil, err
	}

	values := map[string]string{
		"folder_ids":    configList(keyDriveFolderIDs),
		"content_types": configList(keyDriveContentTypes),
		"mime_types":    configList(keyDriveMIMETypes),
	}
	if len(syncFolders) > 0 {
		values["folder_ids"] = strings.Join(syncFolders, ",")
	}

	limiter := google.NewRateLimiter(google.DefaultDriveRateLimit)
	return drive.New(svc, drive.ParseConfig(values), limiter), nil
}

// configString reads a raw config value, or "" when no config is loaded.
func configString(key string) string {
	if configStore == nil {
		return ""
	}
	return configStore.GetString(key)
}

// configList reads a list value written either as a TOML array or as a
// comma separated string.
func configList(key string) string {
	if s := configString(key); s != "" {
		return s
	}
	if configStore == nil {
		return ""
	}
	return strings.Join(configStore.GetStringSlice(key), ",")
}

func defaultDriveTokenFile() (string, error) {
	dir := configDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	return filepath.Join(dir, driveTokenFileName), nil
}
