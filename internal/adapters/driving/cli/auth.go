package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/custodia-labs/docchat/internal/connectors/google"
)

// Local ports tried for the OAuth redirect. Register
// http://localhost:<port>/callback for these in the Google console.
const (
	callbackPortStart = 8085
	callbackPortEnd   = 8095
	authTimeout       = 5 * time.Minute
)

var authCmd = &cobra.Command{
	Use:         "auth",
	Short:       "Authorise access to document sources",
	Annotations: map[string]string{skipWiring: "true"},
}

var authDriveCmd = &cobra.Command{
	Use:   "gdrive",
	Short: "Authorise Google Drive with your Google account",
	Long: `Runs the OAuth consent flow in the browser and saves a refreshable
read-only Drive token for 'docchat sync gdrive'.

The OAuth client ID and secret come from --client-id and --client-secret,
or from gdrive.client_id and gdrive.client_secret. Service accounts do not
need this step; set gdrive.service_account_file instead.`,
	Args: cobra.NoArgs,
	RunE: runAuthDrive,
}

var (
	authClientID     string
	authClientSecret string
	authNoBrowser    bool
)

func init() {
	authDriveCmd.Flags().StringVar(&authClientID, "client-id", "", "OAuth client ID")
	authDriveCmd.Flags().StringVar(&authClientSecret, "client-secret", "", "OAuth client secret")
	authDriveCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "Print the consent URL instead of opening it")

	authCmd.AddCommand(authDriveCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthDrive(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	clientID := firstNonEmpty(authClientID, configString(keyDriveClientID))
	clientSecret := firstNonEmpty(authClientSecret, configString(keyDriveClientSecret))
	if clientID == "" || clientSecret == "" {
		return errors.New("an OAuth client ID and secret are required (--client-id, --client-secret)")
	}

	tokenFile := configString(keyDriveTokenFile)
	if tokenFile == "" {
		path, err := defaultDriveTokenFile()
		if err != nil {
			return err
		}
		tokenFile = path
	}

	// 1. Start the redirect listener.
	state := uuid.NewString()
	listener, err := ListenForCallback(callbackPortStart, callbackPortEnd, state)
	if err != nil {
		return err
	}
	defer listener.Close() //nolint:errcheck

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  listener.RedirectURL(),
		Scopes:       google.Scopes,
	}

	// 2. Send the user to the consent page. Offline access yields a refresh token.
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	cmd.Println("Open this URL to authorise read-only Drive access:")
	cmd.Println()
	cmd.Printf("  %s\n\n", authURL)
	if !authNoBrowser {
		if err := openBrowser(authURL); err != nil {
			cmd.Printf("Could not open a browser: %v\n", err)
		}
	}
	cmd.Println("Waiting for authorisation...")

	// 3. Exchange the code and save the token.
	ctx := commandContext(cmd)
	code, err := listener.Wait(ctx, authTimeout)
	if err != nil {
		return fmt.Errorf("authorisation failed: %w", err)
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorisation code: %w", err)
	}
	if err := google.SaveToken(tokenFile, tok); err != nil {
		return err
	}

	// 4. Remember the client so the token can be refreshed later.
	for key, value := range map[string]string{
		keyDriveClientID:     clientID,
		keyDriveClientSecret: clientSecret,
		keyDriveTokenFile:    tokenFile,
	} {
		if err := settingsService.Set(key, value); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}

	cmd.Printf("Google Drive authorised. Token saved to %s\n", tokenFile)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
